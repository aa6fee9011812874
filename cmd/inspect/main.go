package main

import (
	"chat-broadcast/domain/chat"
	"chat-broadcast/domain/event"
	"chat-broadcast/internal"
	"chat-broadcast/repositories"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// inspect prints the stored messages, latest first, one page at a time.
func main() {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	driver := flag.String("driver", config.StoreDriver, "Store driver (badger or sqlite)")
	cursor := flag.String("cursor", "", "Resume after this cursor")
	pages := flag.Int("pages", 1, "Number of pages to print")
	flag.Parse()

	formatter, err := chat.NewTimestampFormatter(config.TimeZone, config.TimestampLayout)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	options := config.StoreOptions(true)
	options.Driver = *driver
	if options.LimitMessages == nil {
		options.LimitMessages = lo.ToPtr(20)
	}
	repository, err := repositories.Open(options, logs.GetLoggerFromString(config.LogLevel))
	if err != nil {
		log.Fatalf("Failed to open message store: %v", err)
	}
	defer repository.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Timestamp", "User", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	var next *string
	if *cursor != "" {
		next = cursor
	}
	count := 0
	for page := 0; page < *pages; page++ {
		messages, c, err := repository.GetMessages(next)
		if err != nil {
			log.Fatalf("Failed to read messages: %v", err)
		}
		for _, m := range messages {
			evt := event.FromRecord(chat.Group(config.GroupName), m, formatter)
			table.Append([]string{m.ID.String()[:8], evt.Timestamp, evt.User, evt.Message})
		}
		count += len(messages)
		next = c
		if next == nil || len(messages) == 0 {
			break
		}
	}
	table.Render()

	fmt.Printf("\n%d message(s)", count)
	if next != nil {
		fmt.Printf(", next cursor: %s", *next)
	}
	fmt.Println()
}
