package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/omimic12/proxy6-automator/config"
)

func main() {
	var cfg config.Config

	parser, err := config.Load(&cfg)
	if err != nil {
		panic(err)
	}

	commands := []struct {
		name  string
		short string
		long  string
		data  interface{}
	}{
		{"acquire", "Acquire proxies", "Reuse owned proxies under their quota and buy the rest, then print host:port:user:pass lines.", &acquireCommand{cfg: &cfg}},
		{"balance", "Show the wallet balance", "Print the wallet balance as \"<amount> <currency>\".", &balanceCommand{cfg: &cfg}},
		{"countries", "List countries", "List the countries the provider sells for the profile's IP version.", &countriesCommand{cfg: &cfg}},
		{"watch", "Watch the wallet balance", "Refresh the wallet balance periodically and print every change until interrupted.", &watchCommand{cfg: &cfg}},
		{"save", "Save the profile", "Store the profile given by flags and environment as the saved profile.", &saveCommand{cfg: &cfg}},
		{"history", "Show the journal", "Print the latest journal entries kept in Redis.", &historyCommand{cfg: &cfg}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			panic(err)
		}
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
