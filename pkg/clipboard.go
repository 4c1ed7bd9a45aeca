package pkg

type Clipboard interface {
	Copy(text string) error
}
