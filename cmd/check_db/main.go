// Ops helper: verifies DB connectivity and the collabboard schema, and
// reports row counts plus boards with undecodable content.
package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"collabboard/internal/database"
	"collabboard/internal/model"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := database.ConnectDB()
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer database.Close()

	fmt.Println("Connected to database")
	fmt.Println()

	tables := []string{"users", "whiteboards", "whiteboard_participants", "invitation_codes"}
	for _, table := range tables {
		var exists bool
		query := `
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.tables
				WHERE table_name = ?
			)
		`
		if err := db.Raw(query, table).Scan(&exists).Error; err != nil {
			log.Fatal("Failed to check table: ", err)
		}

		var count int64
		if exists {
			db.Table(table).Count(&count)
		}
		fmt.Printf("%-25s exists=%v rows=%d\n", table, exists, count)
	}
	fmt.Println()

	// 내용이 깨진 보드 검출
	var boards []model.Whiteboard
	if err := db.Select("id", "title", "content").Find(&boards).Error; err != nil {
		log.Fatal("Failed to list whiteboards: ", err)
	}

	broken := 0
	for _, b := range boards {
		var elements []model.Element
		if err := json.Unmarshal([]byte(b.Content), &elements); err != nil {
			fmt.Printf("BROKEN content: board %s (%s): %v\n", b.ID, b.Title, err)
			broken++
		}
	}
	if broken == 0 {
		fmt.Println("All whiteboard content decodes cleanly")
	} else {
		fmt.Printf("%d whiteboard(s) with undecodable content\n", broken)
	}
}
