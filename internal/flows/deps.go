package flows

// Deps groups flow dependency sets. The Manager builds this once and
// delegates to the matching flow.
type Deps struct {
	Establish EstablishDeps
	SignOut   SignOutDeps
}
