package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/duelgrid/duelgrid/application"
	"github.com/duelgrid/duelgrid/communication"
	"github.com/duelgrid/duelgrid/discovery"
	"github.com/duelgrid/duelgrid/domain/state"
	"github.com/duelgrid/duelgrid/network"
	"github.com/duelgrid/duelgrid/storage"
)

const defaultRegistryPort = 8089

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <registry-addr>\n", os.Args[0])
		os.Exit(1)
	}

	handler := pterm.NewSlogHandler(&pterm.DefaultLogger)
	logger := slog.New(handler)

	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("D", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("uel ", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("G", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("rid", pterm.FgDarkGray.ToStyle()),
	).Render()

	registryURL, err := normalizeRegistryURL(os.Args[1], defaultRegistryPort)
	if err != nil {
		logger.Error("bad registry address", "err", err)
		os.Exit(1)
	}
	registry := discovery.NewClient(registryURL)

	nickname, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your nickname").Show()
	pterm.Println()

	choice, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Host a new game", "Join by game code", "Browse open games"}).
		Show("What do you want to do?")

	ctx := context.Background()
	switch choice {
	case "Host a new game":
		hostGame(ctx, logger, registry, nickname)
	case "Join by game code":
		code, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter the game code").Show()
		joinGame(ctx, logger, registry, nickname, strings.TrimSpace(code))
	case "Browse open games":
		browseAndJoin(ctx, logger, registry, nickname)
	}
}

func hostGame(ctx context.Context, logger *slog.Logger, registry *discovery.Client, nickname string) {
	port, err := freePort()
	if err != nil {
		logger.Error("no free port", "err", err)
		return
	}
	addr := advertisedAddress(port)

	cert, certPEM, err := network.GenerateSelfSignedCert(addr)
	if err != nil {
		logger.Error("certificate generation failed", "err", err)
		return
	}

	public, _ := pterm.DefaultInteractiveConfirm.Show("List the game publicly?")
	hosted, err := registry.Create(ctx, addr, nickname, certPEM, public)
	if err != nil {
		logger.Error("could not register the game", "err", err)
		return
	}
	pterm.Success.Printfln("Game code: %s", pterm.LightCyan(hosted.Code))

	spinner, _ := pterm.DefaultSpinner.Start("Waiting for an opponent...")
	session, err := network.Host(ctx, fmt.Sprintf(":%d", port),
		network.WithLogger(logger),
		network.WithTLS(network.ServerTLS(cert)))
	if err != nil {
		spinner.Fail()
		logger.Error("nobody came", "err", err)
		return
	}
	spinner.Success("Opponent connected")

	runMatch(ctx, logger, registry, session, state.SlotHost, hosted.Code, nickname)
}

func joinGame(ctx context.Context, logger *slog.Logger, registry *discovery.Client, nickname, code string) {
	joined, err := registry.Join(ctx, code, nickname)
	if err != nil {
		logger.Error("could not join", "code", code, "err", err)
		return
	}

	opts := []network.Option{network.WithLogger(logger)}
	scheme := "ws"
	if len(joined.HostCertPEM) > 0 {
		tlsCfg, err := network.ClientTLS(joined.HostCertPEM)
		if err != nil {
			logger.Error("bad host certificate", "err", err)
			return
		}
		opts = append(opts, network.WithTLS(tlsCfg))
		scheme = "wss"
	}

	spinner, _ := pterm.DefaultSpinner.Start("Connecting to " + joined.HostNickname + "...")
	session, err := network.Dial(ctx, scheme+"://"+joined.HostAddr, opts...)
	if err != nil {
		spinner.Fail()
		logger.Error("could not reach the host", "err", err)
		return
	}
	spinner.Success("Connected")

	runMatch(ctx, logger, registry, session, state.SlotGuest, code, nickname)
}

func browseAndJoin(ctx context.Context, logger *slog.Logger, registry *discovery.Client, nickname string) {
	open, err := registry.OpenGames(ctx)
	if err != nil {
		logger.Error("could not list games", "err", err)
		return
	}
	if len(open) == 0 {
		pterm.Info.Println("No open games right now")
		return
	}
	options := make([]string, 0, len(open))
	byOption := make(map[string]string)
	for _, g := range open {
		label := fmt.Sprintf("%s (%s)", g.Nickname, g.Code)
		options = append(options, label)
		byOption[label] = g.Code
	}
	picked, _ := pterm.DefaultInteractiveSelect.WithOptions(options).Show("Pick a game")
	joinGame(ctx, logger, registry, nickname, byOption[picked])
}

func runMatch(ctx context.Context, logger *slog.Logger, registry *discovery.Client,
	session *network.Session, slot state.Slot, code, nickname string) {

	store := state.NewStore(logger)
	recovery, err := storage.NewRecoveryStore(recoveryDir(), logger)
	if err != nil {
		logger.Warn("recovery disabled", "err", err)
	}

	orch := application.NewGameOrchestrator(application.Config{
		Slot:          slot,
		GameCode:      code,
		Nickname:      nickname,
		HostGoesFirst: true,
		Store:         store,
		Transport:     session,
		Recovery:      recovery,
		Registry:      registry,
		Logger:        logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go orch.Run(ctx)
	go printEvents(orch.Events())

	repl(orch, session, store, slot, nickname)
}

func recoveryDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "duelgrid")
}

func printEvents(events <-chan communication.Message) {
	for msg := range events {
		switch msg.Type {
		case communication.MsgChat:
			pterm.Println(pterm.LightCyan("chat> ") + msg.Chat.Message)
		case communication.MsgRoll:
			pterm.Info.Printfln("%s rolled %d (d%d)", msg.Roll.Nickname, msg.Roll.Result, msg.Roll.Max)
		case communication.MsgSearchingDeck:
			if msg.SearchingDeck.Searching {
				pterm.Info.Printfln("%s is searching their %s deck", msg.SearchingDeck.Player, msg.SearchingDeck.DeckType)
			}
		case communication.MsgConcede:
			pterm.Success.Println("Your opponent conceded")
		case communication.MsgRematchRequest:
			pterm.Info.Println("Your opponent wants a rematch (type 'rematch' to accept)")
		case communication.MsgEndTurn:
			pterm.Info.Println("Your turn")
		}
	}
}

func repl(orch *application.GameOrchestrator, session *network.Session,
	store *state.Store, slot state.Slot, nickname string) {

	d := orch.Dispatcher()
	pterm.Info.Println("Type 'help' for commands")
	for {
		line, _ := pterm.DefaultInteractiveTextInput.Show(string(slot))
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			printHelp()
		case "board":
			printState(store.Game(), slot, d.History())
		case "hand":
			printHand(store.Player(slot))
		case "import":
			sites, spells := demoDecks(store, slot)
			d.ImportDeck(slot, sites, spells)
			orch.PersistPrivateZones()
			pterm.Success.Printfln("Imported %d sites and %d spells", len(sites), len(spells))
		case "draw":
			deck, n := parseDeckArgs(args[1:])
			d.DrawCards(slot, deck, n)
			orch.PersistPrivateZones()
			printHand(store.Player(slot))
		case "search":
			deck, n := parseDeckArgs(args[1:])
			session.Send(communication.Message{
				Type:          communication.MsgSearchingDeck,
				SearchingDeck: &communication.SearchingDeck{Player: slot, DeckType: deck, Searching: true, Count: n},
			})
			cards, _ := d.PeekDeck(slot, deck, n)
			for _, c := range cards {
				name := "??"
				if c.Def != nil {
					name = c.Def.Name
				}
				pterm.Printfln("  %s  %s", c.ID, name)
			}
			d.ReturnToDeck(slot, deck, cards, false)
			session.Send(communication.Message{
				Type:          communication.MsgSearchingDeck,
				SearchingDeck: &communication.SearchingDeck{Player: slot, DeckType: deck, Searching: false},
			})
			orch.PersistPrivateZones()
		case "shuffle":
			deck, _ := parseDeckArgs(args[1:])
			d.ShuffleDeck(slot, deck)
			orch.PersistPrivateZones()
		case "play":
			if len(args) == 4 {
				row, _ := strconv.Atoi(args[2])
				col, _ := strconv.Atoi(args[3])
				d.PlaceOnSite(args[1], row, col)
				orch.PersistPrivateZones()
				printState(store.Game(), slot, d.History())
			}
		case "move":
			if len(args) == 3 {
				d.MoveCard(args[1], slot, state.ZoneID(args[2]), false)
				orch.PersistPrivateZones()
			}
		case "tap":
			if len(args) == 2 {
				d.RotateCard(args[1], state.Tapped)
			}
		case "untap":
			if len(args) == 2 {
				d.RotateCard(args[1], state.Untapped)
			}
		case "life":
			if len(args) == 2 {
				delta, _ := strconv.Atoi(args[1])
				d.AdjustLife(slot, delta)
			}
		case "mana":
			if len(args) == 2 {
				delta, _ := strconv.Atoi(args[1])
				d.AdjustMana(slot, delta)
			}
		case "end":
			d.EndTurn(slot)
			session.Send(communication.Message{Type: communication.MsgEndTurn})
			pterm.Info.Println("Turn passed")
		case "chat":
			session.Send(communication.Message{
				Type: communication.MsgChat,
				Chat: &communication.Chat{Message: strings.Join(args[1:], " "), Timestamp: time.Now().UnixMilli()},
			})
		case "roll":
			max := 6
			if len(args) == 2 {
				if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
					max = n
				}
			}
			result := rand.IntN(max) + 1
			pterm.Info.Printfln("You rolled %d (d%d)", result, max)
			session.Send(communication.Message{
				Type: communication.MsgRoll,
				Roll: &communication.Roll{Max: max, Result: result, Nickname: nickname, Timestamp: time.Now().UnixMilli()},
			})
		case "concede":
			session.Send(communication.Message{Type: communication.MsgConcede})
			return
		case "rematch":
			session.Send(communication.Message{Type: communication.MsgRematchAccept})
			d.ClearSlot(slot)
		case "quit":
			session.Close()
			return
		default:
			pterm.Warning.Printfln("Unknown command %q", args[0])
		}
	}
}

func parseDeckArgs(args []string) (state.DeckType, int) {
	deck := state.DeckSpell
	if len(args) > 0 && args[0] == "site" {
		deck = state.DeckSite
	}
	n := 1
	if len(args) > 1 {
		if parsed, err := strconv.Atoi(args[1]); err == nil && parsed > 0 {
			n = parsed
		}
	}
	return deck, n
}

func printHelp() {
	rows := [][]string{
		{"board", "render the table"},
		{"hand", "list your hand with card ids"},
		{"import", "load the demo decks"},
		{"draw [site|spell] [n]", "draw cards"},
		{"shuffle [site|spell]", "shuffle a deck"},
		{"search [site|spell] [n]", "look at the top of a deck"},
		{"play <id> <row> <col>", "play a card to the board"},
		{"move <id> <zone>", "move a card to a zone"},
		{"tap/untap <id>", "rotate a card"},
		{"life/mana <delta>", "adjust your totals"},
		{"end", "pass the turn"},
		{"chat <text>, roll [max]", "table talk"},
		{"concede, rematch, quit", "match control"},
	}
	pterm.DefaultTable.WithData(rows).Render()
}

// demoDecks builds a small fixed pair of decks so two CLIs can play
// without the external catalog.
func demoDecks(store *state.Store, slot state.Slot) (sites, spells []*state.CardInstance) {
	elements := []struct {
		name string
		th   state.Thresholds
	}{
		{"Windmill", state.Thresholds{Air: 1}},
		{"Quarry", state.Thresholds{Earth: 1}},
		{"Furnace", state.Thresholds{Fire: 1}},
		{"Spring", state.Thresholds{Water: 1}},
	}
	for i := 0; i < 20; i++ {
		el := elements[i%len(elements)]
		def := &state.CardDefinition{Name: el.name, Kind: "site", Thresholds: el.th}
		sites = append(sites, store.NewCard(slot, def, ""))
	}
	units := []string{"Squire", "Knight", "Archer", "Golem", "Wisp", "Drake"}
	for i := 0; i < 30; i++ {
		def := &state.CardDefinition{Name: units[i%len(units)], Kind: "unit"}
		spells = append(spells, store.NewCard(slot, def, ""))
	}
	return sites, spells
}
