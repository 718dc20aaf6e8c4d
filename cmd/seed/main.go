// Seed imports the ingredient catalog from a CSV or XLSX file.
//
// Expected columns: name, measurement unit. CSV files are headerless
// ("абрикосовое варенье,г"); XLSX files are read from the first sheet and a
// header row is skipped when detected.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/avoronova/foodgram-backend/config"
	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <ingredients.csv|ingredients.xlsx>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	ingredientRepo := repository.NewIngredientRepository(db.GetDB())

	fmt.Printf("Reading ingredient file: %s\n", filePath)

	var ingredients []model.Ingredient
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		ingredients, err = readIngredientsFromCSV(filePath)
	case ".xlsx":
		ingredients, err = readIngredientsFromXLSX(filePath)
	default:
		log.Fatal("Unsupported file format, expected .csv or .xlsx")
	}
	if err != nil {
		log.Fatal("Failed to read ingredient file:", err)
	}

	fmt.Printf("Total ingredients to import: %d\n", len(ingredients))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	batchSize := 1000
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := ingredientRepo.BulkCreate(ingredients, batchSize); err != nil {
		log.Fatal("Failed to bulk create ingredients:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total ingredients imported: %d\n", len(ingredients))
}

func readIngredientsFromCSV(filePath string) ([]model.Ingredient, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	var ingredients []model.Ingredient
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		if ingredient, ok := buildIngredient(record[0], record[1]); ok {
			ingredients = append(ingredients, ingredient)
		}
	}
	return ingredients, nil
}

func readIngredientsFromXLSX(filePath string) ([]model.Ingredient, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var ingredients []model.Ingredient
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		// Skip a header row if the first cell looks like a column title.
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "name") {
			continue
		}
		if ingredient, ok := buildIngredient(row[0], row[1]); ok {
			ingredients = append(ingredients, ingredient)
		}
	}
	return ingredients, nil
}

func buildIngredient(name, unit string) (model.Ingredient, bool) {
	name = strings.TrimSpace(name)
	unit = strings.TrimSpace(unit)
	if name == "" || unit == "" {
		return model.Ingredient{}, false
	}
	return model.Ingredient{
		Name:            name,
		MeasurementUnit: unit,
	}, true
}
