package bot

import (
	"bytes"
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/robux-bot/internal/domain/users"
)

// exportUsers /users: выгрузка справочника в Excel.
func (b *Bot) exportUsers(ctx context.Context, chatID int64) {
	list, err := b.users.List(ctx)
	if err != nil {
		b.log.Error("list users failed", "err", err)
		b.reply(chatID, "Ошибка загрузки пользователей")
		return
	}
	if len(list) == 0 {
		b.reply(chatID, "Список пользователей пуст.")
		return
	}

	data, err := usersWorkbook(list)
	if err != nil {
		b.log.Error("users export failed", "err", err)
		b.reply(chatID, "Ошибка формирования файла")
		return
	}

	fileName := fmt.Sprintf("users_%s.xlsx", b.now().Format("20060102_150405"))
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fileName,
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("Пользователей в базе: %d", len(list))
	b.send(doc)
}

func usersWorkbook(list []users.User) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"id", "username", "first_name", "first_seen"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	for i, u := range list {
		seen := ""
		if !u.FirstSeen.IsZero() {
			seen = u.FirstSeen.Format("2006-01-02 15:04:05")
		}
		row := []interface{}{u.ID, u.Username, u.FirstName, seen}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	return buf.Bytes(), nil
}
