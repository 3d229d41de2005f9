package domain

// OTPOutcome is the result of a verify attempt.
// The zero value is OTPRejected so an outcome left unset never authenticates.
type OTPOutcome int

const (
	OTPRejected OTPOutcome = iota
	OTPAccepted
	OTPNoChallenge
	OTPExpired
	OTPAttemptsExceeded
	OTPMismatch
)

func (o OTPOutcome) String() string {
	switch o {
	case OTPAccepted:
		return "accepted"
	case OTPNoChallenge:
		return "no_challenge"
	case OTPExpired:
		return "expired"
	case OTPAttemptsExceeded:
		return "attempts_exceeded"
	case OTPMismatch:
		return "mismatch"
	default:
		return "rejected"
	}
}

// Err maps a non-accepted outcome to its sentinel error
func (o OTPOutcome) Err() error {
	switch o {
	case OTPAccepted:
		return nil
	case OTPNoChallenge:
		return ErrOTPNotFound
	case OTPExpired:
		return ErrOTPExpired
	case OTPAttemptsExceeded:
		return ErrOTPMaxAttempts
	case OTPMismatch:
		return ErrOTPInvalid
	default:
		return ErrOTPRejected
	}
}
