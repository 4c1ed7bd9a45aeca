package pkg

type Measure interface {
	Balance(balance Balance) error
	Acquired(reused, purchased int) error
}
