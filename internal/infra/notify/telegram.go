// Package notify дублирует важные события станции старшему смены в Telegram.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/packing-station/internal/station"
)

// Sender часть tgbotapi.BotAPI, которая нужна уведомлениям.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram оборачивает Presenter: всё уходит дальше как есть, а повторные открытия,
// собранные заказы, сбои и отчёты ещё и отправляются в чат. Отправка идёт в фоне,
// цикл станции не ждёт сеть.
type Telegram struct {
	next   station.Presenter
	api    Sender
	chatID int64
	log    *slog.Logger

	out  chan tgbotapi.Chattable
	wg   sync.WaitGroup
	once sync.Once
}

const outboxSize = 64

func NewTelegram(next station.Presenter, api Sender, chatID int64, log *slog.Logger) *Telegram {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	t := &Telegram{
		next:   next,
		api:    api,
		chatID: chatID,
		log:    log,
		out:    make(chan tgbotapi.Chattable, outboxSize),
	}
	t.wg.Add(1)
	go t.loop()
	return t
}

func (t *Telegram) Present(ctx context.Context, ev station.Event) {
	t.next.Present(ctx, ev)

	for _, msg := range t.messages(ev) {
		select {
		case t.out <- msg:
		default:
			t.log.Warn("telegram outbox full, notification dropped", "event", fmt.Sprintf("%T", ev))
		}
	}
}

// Close дожидается отправки накопленного.
func (t *Telegram) Close() {
	t.once.Do(func() { close(t.out) })
	t.wg.Wait()
}

func (t *Telegram) loop() {
	defer t.wg.Done()
	for msg := range t.out {
		if _, err := t.api.Send(msg); err != nil {
			t.log.Error("send failed", "err", err)
		}
	}
}

func (t *Telegram) messages(ev station.Event) []tgbotapi.Chattable {
	switch e := ev.(type) {
	case station.BoxOpened:
		return []tgbotapi.Chattable{tgbotapi.NewMessage(t.chatID,
			fmt.Sprintf("🔓 Короб %s открыт повторно, сканирование начато заново.", e.Box.Number))}
	case station.ItemScanned:
		if !e.Outcome.OrderClosed {
			return nil
		}
		return []tgbotapi.Chattable{tgbotapi.NewMessage(t.chatID,
			fmt.Sprintf("✅ Заказ собран: последний товар %s в коробе %s.", e.Outcome.Item.Barcode, e.Box.Number))}
	case station.Failure:
		return []tgbotapi.Chattable{tgbotapi.NewMessage(t.chatID, fmt.Sprintf("⚠️ Ошибка (%s): %v", e.Op, e.Err))}
	case station.ReportSaved:
		out := make([]tgbotapi.Chattable, 0, len(e.Paths))
		for _, p := range e.Paths {
			doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FilePath(p))
			doc.Caption = "Отчёт по заказу"
			out = append(out, doc)
		}
		return out
	}
	return nil
}
