package check

// These functions are meant to simplify panicking in the code
// Always consider returning errors instead of panicking!

// PanicIfErr calls panic(err) if err is not nil.
func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}
