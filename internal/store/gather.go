package store

import (
	"context"
	"log/slog"
	"time"

	"msgwrapped/internal/domain"
)

// GatherTiming records elapsed time per gather sub-phase.
type GatherTiming struct {
	OpenStore     time.Duration
	QueryMessages time.Duration
	LoadContacts  time.Duration
	LoadHandles   time.Duration
	Total         time.Duration
}

// Gather opens the message and contact stores, retrieves and orders all
// records, and builds the lookup indices. Every connection it opens is
// closed after its data has been extracted; rt.Release covers the error
// paths.
func Gather(ctx context.Context, rt *Runtime, chatDBPath, addressBookPath string, logger *slog.Logger) ([]domain.MessageRecord, domain.Contacts, domain.Handles, GatherTiming, error) {
	var timing GatherTiming
	totalStart := time.Now()

	chatDB, err := OpenChatDB(ctx, rt, chatDBPath)
	if err != nil {
		return nil, domain.Contacts{}, nil, timing, err
	}
	timing.OpenStore = time.Since(totalStart)

	messagesStart := time.Now()
	messages, err := chatDB.Messages(ctx)
	if err != nil {
		return nil, domain.Contacts{}, nil, timing, err
	}
	sortMessages(messages)
	timing.QueryMessages = time.Since(messagesStart)

	contactsStart := time.Now()
	contacts, err := LoadContacts(ctx, rt, addressBookPath, logger)
	if err != nil {
		return nil, domain.Contacts{}, nil, timing, err
	}
	timing.LoadContacts = time.Since(contactsStart)

	handlesStart := time.Now()
	handles, err := chatDB.Handles(ctx)
	if err != nil {
		return nil, domain.Contacts{}, nil, timing, err
	}
	timing.LoadHandles = time.Since(handlesStart)

	if err := chatDB.db.Close(); err != nil {
		logger.Debug("message store close failed", "err", err)
	}

	timing.Total = time.Since(totalStart)
	return messages, contacts, handles, timing, nil
}
