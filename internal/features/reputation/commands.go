// Package reputation — commands.go разбирает аргументы команд чата.
package reputation

import (
	"fmt"
	"strconv"
	"strings"

	"serotonyl.ru/reputation-bot/internal/common"
)

// Параметры команды !топ
const (
	DefaultTopLimit = 10
	MaxTopLimit     = 50
)

// giveArgs — разобранная команда !реп [@user] [категория] [причина...].
type giveArgs struct {
	Username string
	Category Category
	Reason   string
}

// parseGiveArgs разбирает аргументы !реп. Без категории — helpfulness.
func parseGiveArgs(args []string) (giveArgs, error) {
	out := giveArgs{Category: Helpfulness}
	args, out.Username = takeUsername(args)
	if len(args) == 0 {
		return out, nil
	}
	c, ok := ParseCategoryAlias(args[0])
	if !ok || c == CategoryTotal {
		return out, common.ErrInvalidCategory
	}
	out.Category = c
	out.Reason = strings.Join(args[1:], " ")
	return out, nil
}

// adjustArgs — разобранная команда !корр [@user] <категория> <±N> [причина...].
type adjustArgs struct {
	Username string
	Category Category
	Amount   int64
	Reason   string
}

func parseAdjustArgs(args []string) (adjustArgs, error) {
	var out adjustArgs
	args, out.Username = takeUsername(args)
	if len(args) < 2 {
		return out, fmt.Errorf("использование: !корр [@user] <категория> <±N> [причина]")
	}
	c, ok := ParseCategoryAlias(args[0])
	if !ok || c == CategoryTotal {
		return out, common.ErrInvalidCategory
	}
	amount, err := strconv.ParseInt(strings.TrimPrefix(args[1], "+"), 10, 64)
	if err != nil || amount == 0 {
		return out, common.ErrInvalidAmount
	}
	out.Category = c
	out.Amount = amount
	out.Reason = strings.Join(args[2:], " ")
	return out, nil
}

// parseTopArgs разбирает !топ [категория] [N]. По умолчанию — сумма, 10 мест.
func parseTopArgs(args []string) (Category, int, error) {
	category := CategoryTotal
	limit := DefaultTopLimit
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			if n <= 0 {
				return "", 0, fmt.Errorf("число мест должно быть > 0")
			}
			limit = n
			continue
		}
		c, ok := ParseCategoryAlias(a)
		if !ok {
			return "", 0, common.ErrInvalidCategory
		}
		category = c
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}
	return category, limit, nil
}

// parseSettingsArgs разбирает !настройки <ключ> <значение>.
//
// Ключи:
//   - репутация вкл|выкл
//   - кулдаун <минуты>
//   - лимит <число в день>
//   - минус да|нет
func parseSettingsArgs(args []string) (SettingsPatch, error) {
	var patch SettingsPatch
	if len(args) != 2 {
		return patch, fmt.Errorf("использование: !настройки <репутация|кулдаун|лимит|минус> <значение>")
	}
	key, value := strings.ToLower(args[0]), strings.ToLower(args[1])
	switch key {
	case "репутация":
		b, err := parseSwitch(value)
		if err != nil {
			return patch, err
		}
		patch.Enabled = &b
	case "минус":
		b, err := parseSwitch(value)
		if err != nil {
			return patch, err
		}
		patch.AllowNegative = &b
	case "кулдаун", "лимит":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return patch, fmt.Errorf("значение должно быть неотрицательным числом")
		}
		if key == "кулдаун" {
			patch.CooldownMinutes = &n
		} else {
			patch.DailyLimit = &n
		}
	default:
		return patch, fmt.Errorf("неизвестная настройка %q", key)
	}
	return patch, nil
}

func parseSwitch(v string) (bool, error) {
	switch v {
	case "вкл", "да", "on", "1":
		return true, nil
	case "выкл", "нет", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("ожидалось вкл/выкл или да/нет")
}

// takeUsername вынимает первый аргумент вида @username.
func takeUsername(args []string) ([]string, string) {
	for i, a := range args {
		if strings.HasPrefix(a, "@") && len(a) > 1 {
			rest := make([]string, 0, len(args)-1)
			rest = append(rest, args[:i]...)
			rest = append(rest, args[i+1:]...)
			return rest, a
		}
	}
	return args, ""
}

// FormatSettings показывает настройки чата.
func FormatSettings(s Settings) string {
	onOff := func(b bool) string {
		if b {
			return "вкл"
		}
		return "выкл"
	}
	return fmt.Sprintf("⚙️ Настройки репутации\nРепутация: %s\nКулдаун: %d мин\nЛимит в день: %d\nМинус: %s",
		onOff(s.Enabled), s.CooldownMinutes, s.DailyLimit, onOff(s.AllowNegative))
}
