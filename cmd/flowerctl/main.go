// flowerctl drives the flowmarket API from the command line, for both the
// ordering client and the store sides of the marketplace.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"flowmarket/client"
)

func main() {
	godotenv.Load()

	baseURL := os.Getenv("FLOWMARKET_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	tokenPath := os.Getenv("FLOWMARKET_TOKENS")
	if tokenPath == "" {
		home, _ := os.UserHomeDir()
		tokenPath = filepath.Join(home, ".flowmarket", "tokens.json")
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	session := client.NewSession(&client.FileTokenStore{Path: tokenPath}, log)
	api := client.New(baseURL, session, client.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if err := run(ctx, api, os.Args[1], os.Args[2:]); err != nil {
		log.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: flowerctl <command> [flags]

account:
  register    create an account and log in
  login       log in with email and password
  logout      log out and clear stored tokens
  me          show the profile and active order
  become      switch account type (-type client|store)

client:
  flowers     list the flower catalog
  colors      list the color catalog
  order       place an order
  cancel      cancel the active order (-uuid, -reason)
  prices      list offers on the active order
  accept      accept an offer (-uuid)
  reject      dismiss an offer (-uuid)
  confirm     confirm delivery (-uuid, -rating)
  history     list past orders
  watch       poll offers until one arrives

store:
  profile        show the storefront
  incoming       list pending orders without an offer yet
  propose        offer a price (-uuid, -price, -comment, -image)
  advance        move a won order forward (-uuid, -status)
  store-history  list proposal history (-page, -relevant)`)
}

func run(ctx context.Context, api *client.Client, command string, args []string) error {
	switch command {
	case "register":
		return register(ctx, api, args)
	case "login":
		return login(ctx, api, args)
	case "logout":
		api.Logout(ctx)
		return nil
	case "me":
		user, err := api.Me(ctx)
		if err != nil {
			return err
		}
		return printJSON(user)
	case "become":
		fs := flag.NewFlagSet("become", flag.ExitOnError)
		userType := fs.String("type", "", "client or store")
		fs.Parse(args)
		user, err := api.SetUserType(ctx, *userType)
		if err != nil {
			return err
		}
		return printJSON(user)
	case "flowers":
		entries, err := api.Flowers(ctx)
		if err != nil {
			return err
		}
		return printJSON(entries)
	case "colors":
		entries, err := api.Colors(ctx)
		if err != nil {
			return err
		}
		return printJSON(entries)
	case "order":
		return createOrder(ctx, api, args)
	case "cancel":
		fs := flag.NewFlagSet("cancel", flag.ExitOnError)
		uuid := fs.String("uuid", "", "order uuid")
		reason := fs.String("reason", "", "cancellation reason")
		fs.Parse(args)
		order, err := api.CancelOrder(ctx, *uuid, *reason)
		if err != nil {
			return err
		}
		return printJSON(order)
	case "prices":
		prices, err := api.ProposedPrices(ctx)
		if err != nil {
			return err
		}
		return printJSON(prices)
	case "accept":
		fs := flag.NewFlagSet("accept", flag.ExitOnError)
		uuid := fs.String("uuid", "", "proposal uuid")
		fs.Parse(args)
		order, err := api.AcceptProposal(ctx, *uuid)
		if err != nil {
			return err
		}
		return printJSON(order)
	case "reject":
		fs := flag.NewFlagSet("reject", flag.ExitOnError)
		uuid := fs.String("uuid", "", "proposal uuid")
		fs.Parse(args)
		return api.RejectProposal(ctx, *uuid)
	case "confirm":
		fs := flag.NewFlagSet("confirm", flag.ExitOnError)
		uuid := fs.String("uuid", "", "order uuid")
		rating := fs.Int("rating", 0, "1 to 5, defaults to 4")
		fs.Parse(args)
		change, err := api.ConfirmDelivery(ctx, *uuid, *rating)
		if err != nil {
			return err
		}
		return printJSON(change)
	case "history":
		orders, err := api.OrderHistory(ctx)
		if err != nil {
			return err
		}
		return printJSON(orders)
	case "watch":
		return watchPrices(ctx, api)
	case "profile":
		profile, err := api.FetchStoreProfile(ctx)
		if err != nil {
			return err
		}
		return printJSON(profile)
	case "incoming":
		orders, err := api.IncomingOrders(ctx)
		if err != nil {
			return err
		}
		return printJSON(orders)
	case "propose":
		return propose(ctx, api, args)
	case "advance":
		fs := flag.NewFlagSet("advance", flag.ExitOnError)
		uuid := fs.String("uuid", "", "order uuid")
		status := fs.String("status", "", "accepted, in_transit or completed")
		fs.Parse(args)
		change, err := api.AdvanceOrder(ctx, *uuid, *status)
		if err != nil {
			return err
		}
		return printJSON(change)
	case "store-history":
		fs := flag.NewFlagSet("store-history", flag.ExitOnError)
		page := fs.Int("page", 1, "page number")
		relevant := fs.Bool("relevant", false, "only entries still in play")
		fs.Parse(args)
		result, err := api.History(ctx, *page, *relevant)
		if err != nil {
			return err
		}
		return printJSON(result)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func register(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	firstName := fs.String("first-name", "", "first name")
	lastName := fs.String("last-name", "", "last name")
	phone := fs.String("phone", "", "phone")
	city := fs.String("city", "", "city")
	fs.Parse(args)

	user, err := api.Register(ctx, client.RegisterInput{
		Email:     *email,
		Password:  *password,
		FirstName: *firstName,
		LastName:  *lastName,
		Phone:     *phone,
		City:      *city,
	})
	if err != nil {
		return err
	}
	return printJSON(user)
}

func login(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	return api.Login(ctx, client.LoginInput{Email: *email, Password: *password})
}

func createOrder(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	flower := fs.String("flower", "", "flower type")
	color := fs.String("color", "", "color")
	height := fs.String("height", "", "flower height")
	quantity := fs.Int("quantity", 0, "stem count")
	decoration := fs.Bool("decoration", false, "include decoration")
	address := fs.String("address", "", "recipient address")
	phone := fs.String("phone", "", "recipient phone")
	note := fs.String("note", "", "free-form wishes")
	fs.Parse(args)

	order, err := api.CreateOrder(ctx, client.CreateOrderInput{
		Flower:            *flower,
		Color:             client.TextRef{Text: *color},
		FlowerHeight:      *height,
		Quantity:          *quantity,
		Decoration:        *decoration,
		RecipientsAddress: *address,
		RecipientsPhone:   *phone,
		FlowerData:        *note,
	})
	if err != nil {
		return err
	}
	return printJSON(order)
}

func propose(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("propose", flag.ExitOnError)
	uuid := fs.String("uuid", "", "order uuid")
	price := fs.String("price", "", "proposed price")
	comment := fs.String("comment", "", "comment for the client")
	image := fs.String("image", "", "path to a bouquet photo")
	fs.Parse(args)

	in := client.ProposePriceInput{ProposedPrice: *price, Comment: *comment}
	if *image != "" {
		f, err := os.Open(*image)
		if err != nil {
			return err
		}
		defer f.Close()
		in.FlowerImgName = filepath.Base(*image)
		in.FlowerImgReader = f
	}

	proposal, err := api.ProposePrice(ctx, *uuid, in)
	if err != nil {
		return err
	}
	return printJSON(proposal)
}

func watchPrices(ctx context.Context, api *client.Client) error {
	fmt.Println("waiting for offers, ctrl-c to stop")
	return api.WatchProposedPrices(ctx, client.PollInterval, func(prices []client.ProposedPrice) bool {
		if len(prices) == 0 {
			return false
		}
		printJSON(prices)
		return true
	})
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
