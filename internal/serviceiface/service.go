package serviceiface

// Service is the lifecycle contract every managed service implements.
// The app manager starts services in sequence order and stops them in reverse.
type Service interface {
	Name() string
	Start() error
	Stop() error
}
