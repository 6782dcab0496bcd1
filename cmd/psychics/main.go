// Command psychics runs a Dragonfly server with the psychics runtime and two
// sample abilities.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/player/chat"
	"github.com/oriumgames/psychics"
)

func main() {
	definitions := flag.String("psychics", "psychics", "directory holding psychic definitions")
	data := flag.String("data", "players", "directory esper state is saved to")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	chat.Global.Subscribe(chat.StdoutSubscriber{})

	store, err := psychics.NewFileStore(*data)
	if err != nil {
		log.Error("psychics: failed to open store", "error", err)
		os.Exit(1)
	}

	// host is set before any psychic is attached; the factories only need it
	// once abilities are cast.
	var host *psychics.Host
	mngr := psychics.NewBuilder().
		Logger(log).
		Store(store).
		Definitions(os.DirFS(*definitions)).
		Ability("psychics.bolt", func() psychics.AbilityHandler { return &Bolt{host: host} }).
		Ability("psychics.meditation", func() psychics.AbilityHandler { return &Meditation{} }).
		Init()

	conf, err := server.DefaultConfig().Config(log)
	if err != nil {
		log.Error("psychics: failed to configure server", "error", err)
		os.Exit(1)
	}
	srv := conf.New()
	srv.CloseOnProgramEnd()

	host = psychics.NewHost(mngr, srv.World())
	psychics.RegisterCommands(host)
	mngr.Start()

	srv.Listen()
	for p := range srv.Accept() {
		if _, err := host.Accept(p); err != nil {
			log.Error("psychics: failed to load esper", "player", p.Name(), "error", err)
			p.Disconnect("failed to load psychics")
			continue
		}
		_, _ = p.Inventory().AddItem(psychics.Wand(item.NewStack(item.BlazeRod{}, 1).WithCustomName("Fire Wand"), "blaze_rod"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mngr.Shutdown(ctx); err != nil {
		log.Error("psychics: failed to save espers", "error", err)
	}
}
