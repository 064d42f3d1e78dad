package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
	"github.com/Spok95/packing-station/internal/station"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegram_ForwardsAndNotifies(t *testing.T) {
	var passed []station.Event
	next := station.PresenterFunc(func(_ context.Context, ev station.Event) { passed = append(passed, ev) })
	api := &fakeSender{}
	n := NewTelegram(next, api, 100, nil)

	ctx := context.Background()
	box := fulfillment.Box{ID: 1, Number: "7"}
	events := []station.Event{
		station.Status{Text: "Готов"},
		station.BoxOpened{Box: box},
		station.ItemScanned{Box: box, Outcome: fulfillment.ScanOutcome{Item: fulfillment.Item{ItemFields: fulfillment.ItemFields{Barcode: "1"}}}},
		station.ItemScanned{Box: box, Outcome: fulfillment.ScanOutcome{OrderClosed: true, Item: fulfillment.Item{ItemFields: fulfillment.ItemFields{Barcode: "2"}}}},
		station.Failure{Op: "load_orders", Err: errors.New("connection refused")},
		station.ReportSaved{OrderID: 1, Paths: []string{"/tmp/order_report.xlsx", "/tmp/order_report.pdf"}},
	}
	for _, ev := range events {
		n.Present(ctx, ev)
	}
	n.Close()

	assert.Equal(t, events, passed, "every event reaches the wrapped presenter")

	require.Len(t, api.sent, 5)
	opened := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(100), opened.ChatID)
	assert.Contains(t, opened.Text, "Короб 7")
	assert.Contains(t, api.sent[1].(tgbotapi.MessageConfig).Text, "Заказ собран")
	assert.Contains(t, api.sent[2].(tgbotapi.MessageConfig).Text, "connection refused")
	doc := api.sent[3].(tgbotapi.DocumentConfig)
	assert.Equal(t, "Отчёт по заказу", doc.Caption)
	assert.Equal(t, tgbotapi.FilePath("/tmp/order_report.pdf"), api.sent[4].(tgbotapi.DocumentConfig).File)
}
