package gopher

import "fmt"

// EntityType is the single character that classifies a directory line.
//
// Any byte is a valid EntityType: the ones not listed below are unknown
// types that still carry their raw character.
type EntityType byte

// Standard RFC 1436 types.
const (
	TypeTextFile        EntityType = '0'
	TypeMenu            EntityType = '1'
	TypeCSO             EntityType = '2'
	TypeError           EntityType = '3'
	TypeMacBinHex       EntityType = '4'
	TypePCDOSFile       EntityType = '5'
	TypeUUEncodedFile   EntityType = '6'
	TypeIndexServer     EntityType = '7'
	TypeTelnet          EntityType = '8'
	TypeBinaryFile      EntityType = '9'
	TypeAlternateServer EntityType = '+'
	TypeGIF             EntityType = 'g'
	TypeImage           EntityType = 'I'
	TypeTelnet3270      EntityType = 'T'
)

// Gopher+ types.
const (
	TypeBMP   EntityType = ':'
	TypeMovie EntityType = ';'
	TypeAudio EntityType = '<'
)

// Nonstandard types seen in the wild.
const (
	TypeDoc     EntityType = 'd'
	TypeHTML    EntityType = 'h'
	TypeInfo    EntityType = 'i'
	TypePicture EntityType = 'p'
	TypeRTF     EntityType = 'r'
	TypeSound   EntityType = 's'
	TypePDF     EntityType = 'P'
	TypeXML     EntityType = 'X'
)

// TypeUnknown is what an entity gets when its line had no type character.
const TypeUnknown EntityType = 0

var typeDescriptions = map[EntityType]string{
	TypeTextFile:        "text file",
	TypeMenu:            "menu",
	TypeCSO:             "CSO phone book entity",
	TypeError:           "error condition",
	TypeMacBinHex:       "Macintosh BINHEX file",
	TypePCDOSFile:       "PC-DOS binary file",
	TypeUUEncodedFile:   "uuencoded file",
	TypeIndexServer:     "index server",
	TypeTelnet:          "Telnet session",
	TypeBinaryFile:      "binary file",
	TypeAlternateServer: "alternate server",
	TypeGIF:             "GIF image",
	TypeImage:           "image",
	TypeTelnet3270:      "tn3270-based Telnet session",
	TypeBMP:             "(+)BMP image",
	TypeMovie:           "(+)movie",
	TypeAudio:           "(+)audio",
	TypeDoc:             "(nonstandard) MS Word document",
	TypeHTML:            "(nonstandard) HTML document",
	TypeInfo:            "(nonstandard) info message",
	TypePicture:         "(nonstandard) image",
	TypeRTF:             "(nonstandard) RTF text document",
	TypeSound:           "(nonstandard) sound",
	TypePDF:             "(nonstandard) PDF document",
	TypeXML:             "(nonstandard) XML document",
}

// Description returns a human-readable name for the type.
func (t EntityType) Description() string {
	if desc, ok := typeDescriptions[t]; ok {
		return desc
	}
	return "unknown type"
}

// Known reports whether t is one of the listed types.
func (t EntityType) Known() bool {
	_, ok := typeDescriptions[t]
	return ok
}

// IsImage reports whether entities of this type get their payload
// prefetched while the menu is parsed.
func (t EntityType) IsImage() bool {
	switch t {
	case TypeImage, TypePicture, TypeGIF, TypeBMP:
		return true
	}
	return false
}

// IsText reports whether the payload is a dot-terminated text document.
func (t EntityType) IsText() bool {
	return t == TypeTextFile || t == TypeHTML
}

// IsMenu reports whether the payload is a directory listing.
func (t EntityType) IsMenu() bool {
	return t == TypeMenu || t == TypeIndexServer
}

// IsBinary reports whether the payload is meant to be saved to disk.
func (t EntityType) IsBinary() bool {
	switch t {
	case TypeBinaryFile, TypeMacBinHex, TypePCDOSFile, TypeUUEncodedFile,
		TypeDoc, TypeRTF, TypePDF, TypeMovie, TypeAudio, TypeSound:
		return true
	}
	return false
}

func (t EntityType) String() string {
	if t == TypeUnknown {
		return `\0`
	}
	return fmt.Sprintf("%c", byte(t))
}
