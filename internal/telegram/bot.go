// Package telegram exposes the week planner over a Telegram webhook bot.
package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"planmymeals/internal/clipper"
	"planmymeals/internal/config"
	"planmymeals/internal/dates"
	"planmymeals/internal/mealplan"
	"planmymeals/internal/recipe"
	"planmymeals/internal/shopping"
)

// Bot wraps the Telegram API, the week planner and the clipper.
type Bot struct {
	api     *tgbotapi.BotAPI
	planner *mealplan.Planner
	clipper  *clipper.Clipper
	recipes  *recipe.Repository
	shopping *shopping.Builder
	view     *mealplan.ViewStateStore
	cfg      *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	planner *mealplan.Planner,
	clip *clipper.Clipper,
	recipes *recipe.Repository,
	view *mealplan.ViewStateStore,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:      bot,
		planner:  planner,
		clipper:  clip,
		recipes:  recipes,
		shopping: shopping.NewBuilder(recipes),
		view:     view,
		cfg:      cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}
	if update.Message.From.ID != b.cfg.TelegramAllowUserID {
		log.Printf("Unauthorized access attempt from UserID: %d (@%s)",
			update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	text := strings.TrimSpace(msg.Text)

	// A bare URL switches to clipper mode
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(ctx, msg.Chat.ID, text)
		return
	}

	b.reply(msg.Chat.ID, b.execute(ctx, text))
}

// execute runs one command and returns the reply markdown.
func (b *Bot) execute(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}
	command, args := fields[0], fields[1:]

	switch command {
	case "/start", "/help":
		return helpText

	case "/week":
		week := b.currentWeek()
		if len(args) == 1 && dates.IsISODate(args[0]) {
			start, err := dates.ParseISO(args[0])
			if err == nil {
				week = dates.ToISO(dates.WeekStart(start))
			}
		}
		return b.showWeek(ctx, week)

	case "/next", "/prev":
		start, err := dates.ParseISO(b.currentWeek())
		if err != nil {
			return errorText(err)
		}
		delta := 1
		if command == "/prev" {
			delta = -1
		}
		return b.showWeek(ctx, dates.ToISO(dates.ShiftWeek(start, delta)))

	case "/search":
		results, err := b.recipes.Search(ctx, strings.Join(args, " "), 0)
		if err != nil {
			return errorText(err)
		}
		return formatSearchResults(results)

	case "/assign":
		return b.handleAssign(ctx, args)

	case "/move":
		return b.handleMove(ctx, args)

	case "/servings":
		return b.handleServings(ctx, args)

	case "/shopping":
		week := b.currentWeek()
		b.planner.PrimeFromCache(week)
		if err := b.planner.LoadWeek(ctx, week); err != nil {
			return errorText(err)
		}
		list, err := b.shopping.BuildForWeek(ctx, week, b.planner.Items())
		if err != nil {
			return errorText(err)
		}
		return formatShoppingList(list)

	case "/remove":
		if len(args) != 1 {
			return "Usage: `/remove <item-id>`"
		}
		if err := b.planner.Remove(ctx, args[0]); err != nil {
			return errorText(err)
		}
		return b.showWeek(ctx, b.currentWeek())

	default:
		return helpText
	}
}

func (b *Bot) handleAssign(ctx context.Context, args []string) string {
	if len(args) < 2 || len(args) > 4 {
		return "Usage: `/assign <recipe-id> <date> [meal] [servings]`"
	}
	recipeID, day := args[0], args[1]
	if !dates.IsISODate(day) {
		return fmt.Sprintf("`%s` is not a date (expected YYYY-MM-DD).", day)
	}

	meal := mealplan.DefaultMealType
	var override *int
	for _, arg := range args[2:] {
		if mealplan.ValidMealType(arg) {
			meal = mealplan.MealType(arg)
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return fmt.Sprintf("`%s` is neither a meal type nor a serving count.", arg)
		}
		override = &n
	}

	week := b.currentWeek()
	if err := b.planner.LoadWeek(ctx, week); err != nil {
		return errorText(err)
	}
	if err := b.planner.Assign(ctx, recipeID, day, meal, override); err != nil {
		return errorText(err)
	}
	return b.showWeek(ctx, week)
}

func (b *Bot) handleMove(ctx context.Context, args []string) string {
	if len(args) < 2 || len(args) > 3 {
		return "Usage: `/move <item-id> <date> [meal]`"
	}
	itemID, day := args[0], args[1]
	if !dates.IsISODate(day) {
		return fmt.Sprintf("`%s` is not a date (expected YYYY-MM-DD).", day)
	}
	meal := mealplan.DefaultMealType
	if len(args) == 3 {
		if !mealplan.ValidMealType(args[2]) {
			return fmt.Sprintf("`%s` is not a meal type.", args[2])
		}
		meal = mealplan.MealType(args[2])
	}

	week := b.currentWeek()
	if err := b.planner.LoadWeek(ctx, week); err != nil {
		return errorText(err)
	}
	if err := b.planner.Move(ctx, itemID, day, meal); err != nil {
		return errorText(err)
	}
	return b.showWeek(ctx, week)
}

func (b *Bot) handleServings(ctx context.Context, args []string) string {
	if len(args) != 2 {
		return "Usage: `/servings <item-id> <count|+|->`"
	}
	itemID := args[0]

	week := b.currentWeek()
	if err := b.planner.LoadWeek(ctx, week); err != nil {
		return errorText(err)
	}

	var err error
	switch args[1] {
	case "+":
		err = b.planner.IncrementServings(ctx, itemID)
	case "-":
		err = b.planner.DecrementServings(ctx, itemID)
	default:
		n, convErr := strconv.Atoi(args[1])
		if convErr != nil || n < 1 {
			return fmt.Sprintf("`%s` is not a serving count.", args[1])
		}
		err = b.planner.UpdateServings(ctx, itemID, &n)
	}
	if err != nil {
		return errorText(err)
	}
	return b.showWeek(ctx, week)
}

func (b *Bot) handleClipperRequest(ctx context.Context, chatID int64, url string) {
	statusMsg := tgbotapi.NewMessage(chatID, "✂️ *Clipping recipe...*")
	statusMsg.ParseMode = "Markdown"
	sent, err := b.api.Send(statusMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	clipped, err := b.clipper.ClipURL(ctx, url)
	var finalText string
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		finalText = errorText(err)
	} else {
		finalText = fmt.Sprintf("✅ *Recipe saved!*\n\n*Title:* %s\n*ID:* `%s`\n\nAssign it with `/assign %s <date>`.",
			clipped.Title, clipped.ID, clipped.ID)
	}

	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

// showWeek loads a week into the planner, remembers it as the displayed week
// and renders the calendar.
func (b *Bot) showWeek(ctx context.Context, weekStartISO string) string {
	b.planner.PrimeFromCache(weekStartISO)
	if err := b.planner.LoadWeek(ctx, weekStartISO); err != nil {
		return errorText(err)
	}

	state := b.view.Load(mealplan.ViewState{SelectedMealType: mealplan.DefaultMealType})
	state.WeekStartISO = weekStartISO
	if err := b.view.Save(state); err != nil {
		log.Printf("Warning: failed to save view state: %v", err)
	}

	start, err := dates.ParseISO(weekStartISO)
	if err != nil {
		return errorText(err)
	}
	return formatWeekMarkdown(start, dates.WeekDays(start), b.planner.Slots())
}

func (b *Bot) currentWeek() string {
	fallback := mealplan.ViewState{
		WeekStartISO:     dates.ToISO(dates.WeekStart(time.Now())),
		SelectedMealType: mealplan.DefaultMealType,
	}
	return b.view.Load(fallback).WeekStartISO
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send reply: %v", err)
	}
}

const helpText = `🗓 *PlanMyMeals*

/week [date] - show a week
/next, /prev - change week
/search <term> - find recipes
/assign <recipe-id> <date> [meal] [servings]
/move <item-id> <date> [meal]
/servings <item-id> <count|+|->
/remove <item-id>
/shopping - shopping list for the week

Send a recipe URL to import it.`

func formatWeekMarkdown(start time.Time, days []dates.Day, slots map[mealplan.SlotKey][]mealplan.Item) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *%s*\n", dates.FormatWeekRange(start)))

	for _, day := range days {
		sb.WriteString(fmt.Sprintf("\n*%s %s*\n", day.WeekdayShort, day.MonthDayLabel))
		empty := true
		for _, meal := range mealplan.MealTypes {
			for _, item := range slots[mealplan.SlotKey{Date: day.DateISO, Meal: meal}] {
				empty = false
				sb.WriteString(fmt.Sprintf("• %s: %s", meal, item.RecipeTitle))
				if servings := item.EffectiveServings(); servings != nil {
					sb.WriteString(fmt.Sprintf(" (%d servings)", *servings))
				}
				sb.WriteString(fmt.Sprintf(" `%s`\n", item.ID))
			}
		}
		if empty {
			sb.WriteString("_nothing planned_\n")
		}
	}
	return sb.String()
}

func formatSearchResults(results []mealplan.RecipeSummary) string {
	if len(results) == 0 {
		return "No recipes found."
	}
	var sb strings.Builder
	sb.WriteString("🔎 *Recipes*\n\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("• %s", r.Title))
		if r.Servings != nil {
			sb.WriteString(fmt.Sprintf(" (serves %d)", *r.Servings))
		}
		sb.WriteString(fmt.Sprintf("\n  `%s`\n", r.ID))
	}
	return sb.String()
}

func formatShoppingList(list *shopping.List) string {
	if len(list.Lines) == 0 {
		return "Nothing to buy."
	}
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	for _, line := range list.Lines {
		if line.Quantity != "" {
			sb.WriteString(fmt.Sprintf("• %s %s _(%s)_\n", line.Quantity, line.Name, line.RecipeTitle))
		} else {
			sb.WriteString(fmt.Sprintf("• %s _(%s)_\n", line.Name, line.RecipeTitle))
		}
	}
	return sb.String()
}

func errorText(err error) string {
	safe := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error:*\n```\n%s\n```", safe)
}
