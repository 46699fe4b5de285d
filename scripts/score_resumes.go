package main

import (
	"context"
	"flag"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"alfredoptarigan/career-coach/internal/config"
	"alfredoptarigan/career-coach/internal/models"
	"alfredoptarigan/career-coach/internal/services"
	"alfredoptarigan/career-coach/internal/validation"
)

// Scores resume files against a target role without going through the API.
//
//	go run ./scripts/score_resumes.go -role "Backend Engineer" cv1.pdf cv2.docx
func main() {
	role := flag.String("role", "", "target role to score against")
	flag.Parse()

	if strings.TrimSpace(*role) == "" || flag.NArg() == 0 {
		log.Fatalf("❌ Usage: score_resumes -role <target role> <file>...")
	}

	log.Println("🚀 Starting batch scoring...")

	cfg := config.Load()

	geminiService, err := services.NewGeminiService(cfg.Gemini)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	extractor := services.NewDocumentExtractor()
	scorer := services.NewScoringService(nil, geminiService, validation.New(), cfg.Gemini)

	ctx := context.Background()

	successCount := 0
	failCount := 0

	for _, path := range flag.Args() {
		log.Printf("\n📄 Processing: %s", path)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("   ❌ Failed to read file: %v", err)
			failCount++
			continue
		}

		doc := models.NewUploadedDocument(filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), data)

		log.Printf("   📖 Extracting text (%s)...", doc.DisplayType())
		text, err := extractor.Extract(doc)
		if err != nil {
			log.Printf("   ❌ Failed to extract text: %v", err)
			failCount++
			continue
		}
		log.Printf("   ✅ Extracted %d characters", len(text))

		result, err := scorer.Analyze(ctx, models.AnalysisRequest{
			ResumeText: text,
			TargetRole: *role,
		})
		if err != nil {
			log.Printf("   ❌ Failed to score: %v", err)
			failCount++
			continue
		}

		log.Printf("   📊 Score: %d/100", result.Score)
		log.Printf("   💬 %s", result.FeedbackSummary)
		for i, improvement := range result.Improvements {
			log.Printf("   %d. %s: %s", i+1, improvement.Title, improvement.Detail)
		}
		successCount++
	}

	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Scoring Summary:")
	log.Printf("   ✅ Successful: %d documents", successCount)
	log.Printf("   ❌ Failed: %d documents", failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		os.Exit(1)
	}
}
