package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"planmymeals/internal/clipper"
	"planmymeals/internal/config"
	"planmymeals/internal/database"
	"planmymeals/internal/dates"
	"planmymeals/internal/identity"
	"planmymeals/internal/mealplan"
	"planmymeals/internal/planstore"
	"planmymeals/internal/recipe"
	"planmymeals/internal/session"
	"planmymeals/internal/shopping"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	sessionStore, err := session.NewFileStore(cfg.SessionDir)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}

	var provider identity.Provider
	if cfg.AuthToken != "" {
		provider = identity.NewTokenProvider(cfg.AuthToken, []byte(cfg.AuthTokenSecret))
	} else {
		provider = identity.NewStatic(cfg.UserID)
	}

	recipeRepo := recipe.NewRepository(db.SQL)
	itemStore := planstore.New(db.SQL, provider)
	weekCache := mealplan.NewWeekItemsCache(sessionStore)
	viewStore := mealplan.NewViewStateStore(sessionStore)
	planner := mealplan.NewPlanner(itemStore, weekCache)
	defer planner.Close()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	args := os.Args[2:]

	switch os.Args[1] {
	case "week":
		week := currentWeek(viewStore)
		if len(args) == 1 {
			start, err := dates.ParseISO(args[0])
			if err != nil {
				log.Fatalf("Invalid date: %v", err)
			}
			week = dates.ToISO(dates.WeekStart(start))
		}
		showWeek(ctx, planner, viewStore, week)

	case "next", "prev":
		start, err := dates.ParseISO(currentWeek(viewStore))
		if err != nil {
			log.Fatalf("Invalid stored week: %v", err)
		}
		delta := 1
		if os.Args[1] == "prev" {
			delta = -1
		}
		showWeek(ctx, planner, viewStore, dates.ToISO(dates.ShiftWeek(start, delta)))

	case "search":
		searchCmd := flag.NewFlagSet("search", flag.ExitOnError)
		limit := searchCmd.Int("limit", 0, "Maximum number of results")
		searchCmd.Parse(args)

		results, err := recipeRepo.Search(ctx, searchCmd.Arg(0), *limit)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		if len(results) == 0 {
			fmt.Println("No recipes found.")
			return
		}
		for _, r := range results {
			line := fmt.Sprintf("%-36s  %s", r.ID, r.Title)
			if r.Servings != nil {
				line += fmt.Sprintf(" (serves %d)", *r.Servings)
			}
			fmt.Println(line)
		}

	case "assign":
		assignCmd := flag.NewFlagSet("assign", flag.ExitOnError)
		meal := assignCmd.String("meal", string(mealplan.DefaultMealType), "Meal type (breakfast, lunch, dinner)")
		servings := assignCmd.Int("servings", 0, "Serving count override")
		assignCmd.Parse(args)

		recipeID, day := assignCmd.Arg(0), assignCmd.Arg(1)
		if recipeID == "" || !dates.IsISODate(day) {
			log.Fatal("Usage: planmymeals assign [flags] <recipe-id> <date>")
		}
		if !mealplan.ValidMealType(*meal) {
			log.Fatalf("Invalid meal type %q", *meal)
		}
		var override *int
		if *servings > 0 {
			override = servings
		}

		week := dates.ToISO(dates.WeekStart(mustParse(day)))
		loadWeek(ctx, planner, week)
		if err := planner.Assign(ctx, recipeID, day, mealplan.MealType(*meal), override); err != nil {
			log.Fatalf("Assign failed: %v", err)
		}
		showWeek(ctx, planner, viewStore, week)

	case "move":
		moveCmd := flag.NewFlagSet("move", flag.ExitOnError)
		meal := moveCmd.String("meal", string(mealplan.DefaultMealType), "Meal type (breakfast, lunch, dinner)")
		moveCmd.Parse(args)

		itemID, day := moveCmd.Arg(0), moveCmd.Arg(1)
		if itemID == "" || !dates.IsISODate(day) {
			log.Fatal("Usage: planmymeals move [flags] <item-id> <date>")
		}
		if !mealplan.ValidMealType(*meal) {
			log.Fatalf("Invalid meal type %q", *meal)
		}

		week := currentWeek(viewStore)
		loadWeek(ctx, planner, week)
		if err := planner.Move(ctx, itemID, day, mealplan.MealType(*meal)); err != nil {
			log.Fatalf("Move failed: %v", err)
		}
		showWeek(ctx, planner, viewStore, week)

	case "servings":
		if len(args) != 2 {
			log.Fatal("Usage: planmymeals servings <item-id> <count|+|->")
		}
		itemID := args[0]
		week := currentWeek(viewStore)
		loadWeek(ctx, planner, week)

		switch args[1] {
		case "+":
			err = planner.IncrementServings(ctx, itemID)
		case "-":
			err = planner.DecrementServings(ctx, itemID)
		default:
			n, convErr := strconv.Atoi(args[1])
			if convErr != nil || n < 1 {
				log.Fatalf("Invalid serving count %q", args[1])
			}
			err = planner.UpdateServings(ctx, itemID, &n)
		}
		if err != nil {
			log.Fatalf("Servings update failed: %v", err)
		}
		showWeek(ctx, planner, viewStore, week)

	case "remove":
		if len(args) != 1 {
			log.Fatal("Usage: planmymeals remove <item-id>")
		}
		week := currentWeek(viewStore)
		loadWeek(ctx, planner, week)
		if err := planner.Remove(ctx, args[0]); err != nil {
			log.Fatalf("Remove failed: %v", err)
		}
		showWeek(ctx, planner, viewStore, week)

	case "shopping":
		week := currentWeek(viewStore)
		if len(args) == 1 {
			start, err := dates.ParseISO(args[0])
			if err != nil {
				log.Fatalf("Invalid date: %v", err)
			}
			week = dates.ToISO(dates.WeekStart(start))
		}
		loadWeek(ctx, planner, week)

		list, err := shopping.NewBuilder(recipeRepo).BuildForWeek(ctx, week, planner.Items())
		if err != nil {
			log.Fatalf("Failed to build shopping list: %v", err)
		}
		if len(list.Lines) == 0 {
			fmt.Println("Nothing to buy.")
			return
		}
		fmt.Printf("Shopping list for %s\n", dates.FormatWeekRange(mustParse(week)))
		for _, line := range list.Lines {
			if line.Quantity != "" {
				fmt.Printf("  %s %s (%s)\n", line.Quantity, line.Name, line.RecipeTitle)
			} else {
				fmt.Printf("  %s (%s)\n", line.Name, line.RecipeTitle)
			}
		}

	case "import":
		if len(args) != 1 {
			log.Fatal("Usage: planmymeals import <url>")
		}
		clipped, err := clipper.New(recipeRepo).ClipURL(ctx, args[0])
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("Saved %q as %s\n", clipped.Title, clipped.ID)

	case "clear-cache":
		if err := sessionStore.Reset(); err != nil {
			log.Fatalf("Failed to clear session state: %v", err)
		}
		fmt.Println("Session state cleared.")

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func mustParse(iso string) time.Time {
	t, err := dates.ParseISO(iso)
	if err != nil {
		log.Fatalf("Invalid date: %v", err)
	}
	return t
}

func currentWeek(view *mealplan.ViewStateStore) string {
	fallback := mealplan.ViewState{
		WeekStartISO:     dates.ToISO(dates.WeekStart(time.Now())),
		SelectedMealType: mealplan.DefaultMealType,
	}
	return view.Load(fallback).WeekStartISO
}

func loadWeek(ctx context.Context, planner *mealplan.Planner, weekStartISO string) {
	planner.PrimeFromCache(weekStartISO)
	if err := planner.LoadWeek(ctx, weekStartISO); err != nil {
		log.Fatalf("Failed to load week: %v", err)
	}
}

func showWeek(ctx context.Context, planner *mealplan.Planner, view *mealplan.ViewStateStore, weekStartISO string) {
	loadWeek(ctx, planner, weekStartISO)

	state := view.Load(mealplan.ViewState{SelectedMealType: mealplan.DefaultMealType})
	state.WeekStartISO = weekStartISO
	if err := view.Save(state); err != nil {
		log.Printf("Warning: failed to save view state: %v", err)
	}

	start := mustParse(weekStartISO)
	slots := planner.Slots()

	fmt.Println(dates.FormatWeekRange(start))
	for _, day := range dates.WeekDays(start) {
		fmt.Printf("\n%s\n", day.FullLabel)
		empty := true
		for _, meal := range mealplan.MealTypes {
			for _, item := range slots[mealplan.SlotKey{Date: day.DateISO, Meal: meal}] {
				empty = false
				line := fmt.Sprintf("  %-9s  %s", meal, item.RecipeTitle)
				if servings := item.EffectiveServings(); servings != nil {
					line += fmt.Sprintf(" (%d servings)", *servings)
				}
				fmt.Printf("%s  [%s]\n", line, item.ID)
			}
		}
		if empty {
			fmt.Println("  -")
		}
	}
}

func printUsage() {
	fmt.Println("Usage: planmymeals <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  week [date]                 Show the week containing the date (default: remembered week)")
	fmt.Println("  next, prev                  Show the adjacent week")
	fmt.Println("  search [-limit n] <term>    Find recipes by title")
	fmt.Println("  assign [flags] <recipe-id> <date>")
	fmt.Println("  move [flags] <item-id> <date>")
	fmt.Println("  servings <item-id> <count|+|->")
	fmt.Println("  remove <item-id>")
	fmt.Println("  shopping [date]             Shopping list for the week, scaled to planned servings")
	fmt.Println("  import <url>                Clip a recipe from the web")
	fmt.Println("  clear-cache                 Drop cached weeks and view state")
}
