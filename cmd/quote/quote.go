package quote

import (
	"fmt"
	"io"

	"github.com/go-extras/cobraflags"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/app"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
)

const (
	configFlag   = "config"
	roleFlag     = "role"
	productFlag  = "product"
	quantityFlag = "quantity"
	currencyFlag = "currency"
	langFlag     = "lang"
)

var quoteFlags = map[string]cobraflags.Flag{
	configFlag: &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "Path to a config file (yaml, json or toml)",
	},
	roleFlag: &cobraflags.StringFlag{
		Name:  roleFlag,
		Value: model.GuestRole,
		Usage: "Role to price for",
	},
	productFlag: &cobraflags.IntFlag{
		Name:  productFlag,
		Value: 0,
		Usage: "Product ID (required)",
	},
	quantityFlag: &cobraflags.IntFlag{
		Name:  quantityFlag,
		Value: 1,
		Usage: "Quantity in the cart",
	},
	currencyFlag: &cobraflags.StringFlag{
		Name:  currencyFlag,
		Value: "DKK",
		Usage: "ISO 4217 currency used for display",
	},
	langFlag: &cobraflags.StringFlag{
		Name:  langFlag,
		Value: "da",
		Usage: "Language tag used for number formatting",
	},
}

func NewQuoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print the price of a product for a role",
		Long: `Resolve the active rule of a role against one product and print the result.

Examples:
  b2b-pricing quote --product 1
  b2b-pricing quote --role wholesaler --product 1 --quantity 10`,
		RunE: quoteCommand,
	}

	cobraflags.RegisterMap(cmd, quoteFlags)
	return cmd
}

func quoteCommand(cmd *cobra.Command, _ []string) error {
	productID := int64(quoteFlags[productFlag].GetInt())
	if productID <= 0 {
		return fmt.Errorf("--%s must be a positive product id", productFlag)
	}
	qty := quoteFlags[quantityFlag].GetInt()
	if qty < 1 {
		return fmt.Errorf("--%s must be a positive integer", quantityFlag)
	}
	unit, err := currency.ParseISO(quoteFlags[currencyFlag].GetString())
	if err != nil {
		return fmt.Errorf("invalid currency: %w", err)
	}
	tag, err := language.Parse(quoteFlags[langFlag].GetString())
	if err != nil {
		return fmt.Errorf("invalid language: %w", err)
	}

	a, err := app.Open(quoteFlags[configFlag].GetString())
	if err != nil {
		return err
	}
	defer a.Close()

	actor := &model.Actor{Role: quoteFlags[roleFlag].GetString()}
	line, err := a.Pricing.PriceProduct(cmd.Context(), actor, productID, qty)
	if err != nil {
		return err
	}

	printLine(cmd.OutOrStdout(), message.NewPrinter(tag), unit, actor.Role, line)
	return nil
}

// formatPrice renders an amount with the currency symbol and the
// printer's number format
func formatPrice(p *message.Printer, unit currency.Unit, amount decimal.Decimal) string {
	return p.Sprint(currency.Symbol(unit.Amount(amount.InexactFloat64())))
}

func printLine(w io.Writer, p *message.Printer, unit currency.Unit, role string, line *model.QuoteLine) {
	fmt.Fprintf(w, "%s (#%d) for role %q\n", line.Name, line.ProductID, role)
	fmt.Fprintf(w, "  regular:  %s\n", formatPrice(p, unit, line.RegularPrice))
	fmt.Fprintf(w, "  unit:     %s\n", formatPrice(p, unit, line.UnitPrice))
	fmt.Fprintf(w, "  quantity: %d\n", line.Quantity)
	fmt.Fprintf(w, "  total:    %s\n", formatPrice(p, unit, line.LineTotal))
	fmt.Fprintf(w, "  scope:    %s", line.Scope)
	if line.QuantityBreak {
		fmt.Fprint(w, " (quantity break)")
	}
	fmt.Fprintln(w)
}
