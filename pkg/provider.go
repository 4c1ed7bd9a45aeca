package pkg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

const (
	ProviderPX6 = "px6"
)

type Balance struct {
	Amount   float64
	Currency string
}

// Display renders the wallet the way the provider reports it, "<amount> <currency>".
func (b Balance) Display() string {
	return strconv.FormatFloat(b.Amount, 'f', -1, 64) + " " + b.Currency
}

type Quote struct {
	Price       float64
	PriceSingle float64
	Period      int
	Count       int
}

type Order struct {
	OrderID int64
	Balance *Balance
	Records []Record
	Count   int
	Price   float64
	Period  int
	Country string
}

// Provider is the remote proxy leasing service. Every call returns either its
// payload or an error that is a *TransportError or a *RejectedError.
type Provider interface {
	Name() string

	Balance(ctx context.Context) (*Balance, error)
	Price(ctx context.Context, profile Profile, count int) (*Quote, error)
	ActiveProxies(ctx context.Context) ([]Record, error)
	Countries(ctx context.Context, version IPVersion) ([]string, error)

	// SetDescription and Buy are not safe to retry on an ambiguous failure.
	SetDescription(ctx context.Context, id string, descr string) error
	Buy(ctx context.Context, profile Profile, count int, descr string) (*Order, error)

	// WithRelay returns a provider routing its calls through the relay.
	WithRelay(enabled bool) Provider
	Relayed() bool
}

// TransportError means the provider could not be reached or answered with
// something that is not an API response.
type TransportError struct {
	Method string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: network error: status %d", e.Method, e.Status)
	}
	return fmt.Sprintf("%s: network error: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectedError is an application level refusal, status "no".
type RejectedError struct {
	Method  string
	Code    int
	Message string
}

func (e *RejectedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown"
	}
	return fmt.Sprintf("%s: rejected: %s", e.Method, msg)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// Reason extracts the provider message from a rejection, or the error text.
func Reason(err error) string {
	var re *RejectedError
	if errors.As(err, &re) {
		if re.Message == "" {
			return "Unknown"
		}
		return re.Message
	}
	return err.Error()
}
