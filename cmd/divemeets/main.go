package main

import (
	"diveanalytics-backend/cmd/divemeets/commands"
	"diveanalytics-backend/lib/serviceutil"

	"github.com/shopspring/decimal"
)

func main() {
	// responses carry scraped decimals alongside stored records, both as numbers
	decimal.MarshalJSONWithoutQuotes = true
	commands.ExecuteContext(serviceutil.SignalContext())
}
