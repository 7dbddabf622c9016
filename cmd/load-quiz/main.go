package main

import (
	"encoding/csv"
	"flag"
	"log"
	"os"
	"strings"

	"fobbage/internal/config"
	"fobbage/internal/db"
)

type questionRecord struct {
	Text          string
	CorrectAnswer string
	ImageURL      string
	Player        string
}

func main() {
	filePath := flag.String("file", "questions.csv", "path to questions csv")
	title := flag.String("title", "", "quiz title")
	owner := flag.String("owner", "", "quiz owner")
	flag.Parse()

	if *title == "" {
		log.Fatal("quiz title is required")
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}

	conn, err := db.Open()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	records, err := readQuestions(*filePath)
	if err != nil {
		log.Fatalf("failed to read questions: %v", err)
	}
	if len(records) == 0 {
		log.Fatal("no questions found")
	}

	quiz := db.Quiz{Title: *title, Owner: *owner}
	if err := conn.Create(&quiz).Error; err != nil {
		log.Fatalf("failed to create quiz: %v", err)
	}
	for i, record := range records {
		question := db.Question{
			QuizID:        quiz.ID,
			Text:          record.Text,
			CorrectAnswer: record.CorrectAnswer,
			Order:         i + 1,
			ImageURL:      record.ImageURL,
			Player:        record.Player,
		}
		if err := conn.Create(&question).Error; err != nil {
			log.Fatalf("failed to create question: %v", err)
		}
	}

	log.Printf("loaded quiz %d with %d questions", quiz.ID, len(records))
}

func readQuestions(path string) ([]questionRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []questionRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			continue
		}
		record := questionRecord{
			Text:          strings.TrimSpace(row[0]),
			CorrectAnswer: strings.TrimSpace(row[1]),
		}
		if record.Text == "" || record.CorrectAnswer == "" {
			continue
		}
		if len(row) > 2 {
			record.ImageURL = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			record.Player = strings.TrimSpace(row[3])
		}
		records = append(records, record)
	}
	return records, nil
}
