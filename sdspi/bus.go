package sdspi

// Bus is the byte transport between the engine and the card.
//
// Exchange drives one byte out MSB-first while sampling the byte shifted in
// at the same time, clocked by the implementation. It cannot fail at the
// bit level; protocol failure is detected by the engine from response
// content and polling ceilings, never from the transport.
//
// Select and Deselect drive the card's chip-select line. The engine owns
// the select discipline; implementations only switch the line.
type Bus interface {
	// Exchange sends one byte and returns the byte simultaneously shifted in.
	Exchange(b byte) byte

	// Select asserts chip select (card enabled).
	Select()

	// Deselect releases chip select (card disabled).
	Deselect()
}
