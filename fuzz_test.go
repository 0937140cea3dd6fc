package dicom_test

import (
	"testing"

	"github.com/lucidhealth/dicom"
)

// FuzzReadDataSet feeds arbitrary bytes directly at the parser, the same
// intent as the teacher's fuzztest/fuzz.go (go-fuzz's Fuzz(data []byte)
// int), adapted onto the testing/fuzz target Go now supports natively.
// ReadFileBytes must never panic regardless of input; malformed streams
// should surface as an error.
func FuzzReadDataSet(f *testing.F) {
	f.Add([]byte{})
	f.Add(make([]byte, 132))
	f.Add(append(make([]byte, 128), []byte("DICM")...))
	f.Add([]byte{0x08, 0x00, 0x20, 0x00, 'D', 'A', 0x08, 0x00, '2', '0', '2', '0', '0', '1', '0', '1'})

	f.Fuzz(func(t *testing.T, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("ReadFileBytes panicked on input %x: %v", data, r)
			}
		}()
		_, _, _ = dicom.ReadFileBytes(data, dicom.DefaultFileOptions())
	})
}
