package webauthntypes

// AssertionRequest carries the inputs needed to drive U2F
// AUTHENTICATE exchanges on behalf of a WebAuthn get-assertion call.
type AssertionRequest struct {
	RPID             string
	ClientDataHash   []byte
	AllowList        [][]byte
	UserPresence     bool
	UserVerification bool
}

// Statement is a single populated assertion result, one per credential
// that answered successfully.
type Statement struct {
	id        []byte
	authData  []byte
	signature []byte
}

func (s *Statement) SetID(id []byte) { s.id = append([]byte(nil), id...) }

func (s *Statement) SetAuthData(authData []byte) {
	s.authData = append([]byte(nil), authData...)
}

func (s *Statement) SetSignature(sig []byte) {
	s.signature = append([]byte(nil), sig...)
}

func (s *Statement) ID() []byte        { return s.id }
func (s *Statement) AuthData() []byte  { return s.authData }
func (s *Statement) Signature() []byte { return s.signature }

// Assertion is the output holder for a get-assertion call. SetCount
// preallocates the statement slots before any are filled in, matching
// libfido2's fido_assert_set_count.
type Assertion struct {
	statements []Statement
	count      int
}

// SetCount preallocates n statement slots.
func (a *Assertion) SetCount(n int) {
	a.statements = make([]Statement, n)
	a.count = 0
}

// Statement returns the statement slot at index i for the caller to
// populate via its setters.
func (a *Assertion) Statement(i int) *Statement {
	return &a.statements[i]
}

// Commit records how many statement slots were actually filled in,
// truncating the reported result to that count.
func (a *Assertion) Commit(n int) {
	a.count = n
}

// Count reports the final number of filled-in statements.
func (a *Assertion) Count() int { return a.count }

// Statements returns the filled-in statements (Statements()[:Count()]).
func (a *Assertion) Statements() []Statement {
	return a.statements[:a.count]
}
