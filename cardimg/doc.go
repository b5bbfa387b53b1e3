// Package cardimg persists simulated card state as a small text image.
//
// # Image Format
//
// An image is hex-encoded lines: a header followed by one row per
// register.
//
// Header format (4 hex characters):
//
//	[Version(2)][Kind(2)]
//
//	0102
//	  01 = format version
//	  02 = card kind (01 = legacy SD, 02 = SDHC)
//
// Row format (36 hex characters):
//
//	[Tag(2)][Register(32)][Checksum(2)]
//
// Tags are 01 for the CSD and 02 for the CID. The checksum is the 2's
// complement of the byte sum over tag and register, so a corrupted line is
// rejected with its line number.
//
// # Usage
//
//	img, err := cardimg.Load("card.sdimg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("locked:", img.Locked())
//
//	img.CSD = card.CSD()
//	err = img.Save("card.sdimg")
package cardimg
