// Command dicomdump prints a DICOM file's File Meta Information and
// dataset elements, one per line, and decodes the first PixelData frame
// (if present) through the codec registry to confirm the file's pixel
// data is actually readable rather than just framed. A minimal inspection
// tool kept small since CLI tooling beyond this isn't this module's focus.
package main

import (
	"fmt"
	"os"

	"github.com/lucidhealth/dicom"

	// Blank-imported so their init() registers against codec.Default;
	// callers embedding this package's decode path in a real SCP would
	// import whichever reference codecs they actually need.
	_ "github.com/lucidhealth/dicom/codec/jpeglossless"
	_ "github.com/lucidhealth/dicom/codec/rle"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file.dcm>\n", os.Args[0])
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	ds, meta, err := dicom.ReadFile(f, dicom.DefaultFileOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Transfer Syntax: %s\n", meta.TransferSyntax.UID)
	fmt.Println("File Meta Information:")
	for _, e := range meta.Dataset.Elements() {
		fmt.Println(e)
	}

	fmt.Println("\nDataset:")
	for _, e := range ds.Elements() {
		fmt.Println(e)
	}

	if _, ok := ds.Get(dicom.TagPixelData); ok {
		frame, err := ds.DecodeFrame(meta.TransferSyntax.UID, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\ndecode frame 0: %v\n", err)
			return
		}
		fmt.Printf("\nDecoded frame 0: %d bytes\n", len(frame))
	}
}
