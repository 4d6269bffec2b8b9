package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kevin07696/merchant-gateway/internal/domain"
	"github.com/kevin07696/merchant-gateway/internal/gateway"
	"github.com/kevin07696/merchant-gateway/internal/processors"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/money"
)

type amountFlags struct {
	amount   string
	currency string
}

func (f *amountFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.amount, "amount", "", "decimal amount in major units, e.g. 10.50")
	cmd.Flags().StringVar(&f.currency, "currency", money.DefaultCurrency, "ISO 4217 currency code")
	_ = cmd.MarkFlagRequired("amount")
}

func (f *amountFlags) money() (money.Money, error) {
	return money.Parse(f.amount, f.currency)
}

type cardFlags struct {
	firstName string
	lastName  string
	number    string
	month     int
	year      int
	cvv       string
}

func (f *cardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "cardholder first name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "cardholder last name")
	cmd.Flags().StringVar(&f.number, "card-number", "", "card number")
	cmd.Flags().IntVar(&f.month, "exp-month", 0, "expiry month (1-12)")
	cmd.Flags().IntVar(&f.year, "exp-year", 0, "four-digit expiry year")
	cmd.Flags().StringVar(&f.cvv, "cvv", "", "card verification value")
}

func (f *cardFlags) card() *domain.CreditCard {
	return &domain.CreditCard{
		FirstName:         f.firstName,
		LastName:          f.lastName,
		Number:            f.number,
		Month:             f.month,
		Year:              f.year,
		VerificationValue: f.cvv,
	}
}

type orderFlags struct {
	orderID     string
	description string
	email       string
	customerIP  string
}

func (f *orderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.orderID, "order-id", "", "unique order id (generated when empty)")
	cmd.Flags().StringVar(&f.description, "description", "", "order description")
	cmd.Flags().StringVar(&f.email, "email", "", "customer email")
	cmd.Flags().StringVar(&f.customerIP, "customer-ip", "", "customer IP address")
}

func (f *orderFlags) order() *domain.OrderContext {
	orderID := f.orderID
	if orderID == "" {
		orderID = domain.GenerateOrderID()
	}
	return &domain.OrderContext{
		OrderID:     orderID,
		Description: f.description,
		Email:       f.email,
		CustomerIP:  f.customerIP,
	}
}

// cardOperation is Purchase or Authorize
type cardOperation func(g *gateway.Gateway, ctx context.Context, amount money.Money, card *domain.CreditCard, order *domain.OrderContext) (*domain.Response, error)

// referenceOperation is Capture or Credit
type referenceOperation func(g *gateway.Gateway, ctx context.Context, amount money.Money, ref string, order *domain.OrderContext) (*domain.Response, error)

func newPurchaseCmd(a *app) *cobra.Command {
	return newCardCmd(a, "purchase", "Authorize and capture a card payment in one step", (*gateway.Gateway).Purchase)
}

func newAuthorizeCmd(a *app) *cobra.Command {
	return newCardCmd(a, "authorize", "Reserve funds on a card for a later capture", (*gateway.Gateway).Authorize)
}

func newCaptureCmd(a *app) *cobra.Command {
	return newReferenceCmd(a, "capture", "Settle a prior authorization", (*gateway.Gateway).Capture)
}

func newCreditCmd(a *app) *cobra.Command {
	return newReferenceCmd(a, "credit", "Refund against a settled transaction", (*gateway.Gateway).Credit)
}

func newCardCmd(a *app, use, short string, op cardOperation) *cobra.Command {
	var (
		amt   amountFlags
		card  cardFlags
		order orderFlags
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := amt.money()
			if err != nil {
				return a.fail(cmd, err)
			}
			gw, err := a.newGateway(cmd.Context())
			if err != nil {
				return a.fail(cmd, err)
			}
			resp, err := op(gw, cmd.Context(), amount, card.card(), order.order())
			if err != nil {
				return a.fail(cmd, err)
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
	amt.register(cmd)
	card.register(cmd)
	order.register(cmd)
	return cmd
}

func newReferenceCmd(a *app, use, short string, op referenceOperation) *cobra.Command {
	var (
		amt   amountFlags
		order orderFlags
		ref   string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := amt.money()
			if err != nil {
				return a.fail(cmd, err)
			}
			gw, err := a.newGateway(cmd.Context())
			if err != nil {
				return a.fail(cmd, err)
			}
			var oc *domain.OrderContext
			if order.orderID != "" || order.description != "" || order.email != "" {
				oc = order.order()
			}
			resp, err := op(gw, cmd.Context(), amount, ref, oc)
			if err != nil {
				return a.fail(cmd, err)
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
	amt.register(cmd)
	order.register(cmd)
	cmd.Flags().StringVar(&ref, "authorization", "", "authorization reference from a prior response")
	_ = cmd.MarkFlagRequired("authorization")
	return cmd
}

func newVoidCmd(a *app) *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "void",
		Short: "Cancel a prior authorization or purchase before settlement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := a.newGateway(cmd.Context())
			if err != nil {
				return a.fail(cmd, err)
			}
			resp, err := gw.Void(cmd.Context(), ref)
			if err != nil {
				return a.fail(cmd, err)
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&ref, "authorization", "", "authorization reference from a prior response")
	_ = cmd.MarkFlagRequired("authorization")
	return cmd
}

// redirectOutput is printed by the redirect command
type redirectOutput struct {
	Processor string      `json:"processor"`
	Mode      domain.Mode `json:"mode"`
	URL       string      `json:"url"`
}

func newRedirectCmd(a *app) *cobra.Command {
	var (
		amt      amountFlags
		customer domain.CustomerData
	)

	cmd := &cobra.Command{
		Use:   "redirect",
		Short: "Build a hosted-checkout redirect URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := amt.money()
			if err != nil {
				return a.fail(cmd, err)
			}
			checkout, err := a.newHostedCheckout(cmd.Context())
			if err != nil {
				return a.fail(cmd, err)
			}
			u, err := checkout.RedirectURL(amount, &customer)
			if err != nil {
				return a.fail(cmd, err)
			}
			return a.print(cmd.OutOrStdout(), redirectOutput{
				Processor: a.cfg.Gateway.Processor,
				Mode:      checkout.Mode(),
				URL:       u.String(),
			})
		},
	}
	amt.register(cmd)
	cmd.Flags().StringVar(&customer.CustomerID, "customer-id", "", "customer identifier")
	cmd.Flags().StringVar(&customer.FirstName, "first-name", "", "customer first name")
	cmd.Flags().StringVar(&customer.LastName, "last-name", "", "customer last name")
	cmd.Flags().StringVar(&customer.Email, "email", "", "customer email")
	cmd.Flags().StringVar(&customer.OrderID, "order-id", "", "order id (EPX Browser Post)")
	cmd.Flags().StringVar(&customer.RedirectURL, "redirect-url", "", "return URL (EPX Browser Post)")
	return cmd
}

// newRedirectCallbackCmd parses the query string a hosted-checkout processor
// appends to the return URL, verifying its signature when a MAC key is set.
func newRedirectCallbackCmd(a *app) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "redirect-callback",
		Short: "Parse the result a hosted-checkout processor sends to the return URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
			if err != nil {
				return a.fail(cmd, pkgerrors.NewValidationError("query", err.Error()))
			}
			checkout, err := a.newHostedCheckout(cmd.Context())
			if err != nil {
				return a.fail(cmd, err)
			}
			resp, err := checkout.ParseCallback(params)
			if err != nil {
				return a.fail(cmd, err)
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "return URL query string")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func newProcessorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "processors",
		Short: "List supported processors and their required options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range processors.Names() {
				keys, _ := processors.RequiredOptions(name)
				kind := "gateway"
				if processors.IsRedirect(name) {
					kind = "redirect"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %-9s %v\n", name, kind, keys)
			}
			return nil
		},
	}
}
