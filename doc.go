/*
Package imgproc loads pixel images into relocatable container chains.

Load sniffs the leading magic and dispatches to the KTX, DDS, EXR or
chain-archive reader; each produces an image.Image chain with one record
per mip level (or per EXR layer). The chain archive persists any chain
verbatim behind optional LZ4 chunk-stream or zstd compression, BCn
surfaces expand to RGBA8 through the bcn decoder, and standard library
images bridge in and out of the RGBA8 path.
*/
package imgproc
