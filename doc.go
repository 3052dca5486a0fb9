/*
Package cooknet is a conversational recipe-submission service for Telegram, with a
small public website on top of the same SQLite database.

A user taps «Add recipe», sends a photo, a title and a short description; the bot
stores the recipe with a generated caption and the site shows it to everyone.

# Architecture

The service is split the hexagonal way:

  - pkg/domain: conversations, events, responses and recipes.
  - pkg/fsm: the pure submission state machine (Idle → AwaitingPhoto → AwaitingTitle → AwaitingDescription → Idle).
  - pkg/session: per-identity locking and expiry of in-flight conversations.
  - pkg/throttle: the debounce guard that drops rapid repeated actions.
  - pkg/dispatch: the bridge from events to the machine, and the bounded worker queue.
  - pkg/adapters: memory, redis, sqlite, telegram and http implementations of the ports.

# Usage

	cfg, err := cooknet.LoadConfig("cooknet.yaml")
	if err != nil {
		log.Fatal(err)
	}

	app, err := cooknet.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	// Blocks until ctx is cancelled, then drains the queue.
	if err := app.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package cooknet
