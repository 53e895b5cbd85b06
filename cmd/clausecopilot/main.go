package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/madhav-20/ClauseCopilot/internal/config"
	"github.com/madhav-20/ClauseCopilot/internal/domain"
	"github.com/madhav-20/ClauseCopilot/internal/embedding"
	"github.com/madhav-20/ClauseCopilot/internal/embedding/openai"
	"github.com/madhav-20/ClauseCopilot/internal/embedding/tfidf"
	"github.com/madhav-20/ClauseCopilot/internal/evidence"
	"github.com/madhav-20/ClauseCopilot/internal/ingest"
	"github.com/madhav-20/ClauseCopilot/internal/llm/ollama"
	"github.com/madhav-20/ClauseCopilot/internal/playbook"
	"github.com/madhav-20/ClauseCopilot/internal/review"
	"github.com/madhav-20/ClauseCopilot/internal/segmenter"
	"github.com/madhav-20/ClauseCopilot/internal/store"
	"github.com/madhav-20/ClauseCopilot/internal/tui"
	"github.com/madhav-20/ClauseCopilot/internal/vectorstore/memory"
	"github.com/madhav-20/ClauseCopilot/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, vendor, playbookName string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/clausecopilot/config.yaml if not provided)")
	flag.StringVar(&vendor, "vendor", "", "Vendor name the contracts belong to")
	flag.StringVar(&playbookName, "playbook", "", "Negotiation playbook: "+strings.Join(playbook.Names(), ", "))
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: clausecopilot [--config=config.yaml] [--vendor=Acme] [--playbook=name] contract1.txt [contract2.txt ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if playbookName == "" {
		playbookName = cfg.Playbook
	}

	// Assemble components
	emb, err := embedding.Shared(func() (domain.Embedder, error) {
		switch cfg.Embedder.Type {
		case "tfidf", "":
			return tfidf.NewEmbedder(), nil
		case "openai":
			if cfg.Embedder.OpenAI == nil {
				return nil, fmt.Errorf("openai embedder config missing")
			}
			return openai.NewClient(openai.Config{
				BaseURL:   cfg.Embedder.OpenAI.BaseURL,
				APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
				Model:     cfg.Embedder.OpenAI.Model,
				Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
				BatchSize: cfg.Embedder.OpenAI.BatchSize,
			})
		default:
			return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
		}
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	var vectors domain.VectorStore
	switch cfg.VectorStore.Type {
	case "memory", "":
		vectors = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		vectors = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	generator := ollama.NewClient(ollama.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})

	db, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	svc := review.NewService(review.Config{
		Segmenter:   segmenter.NewSectionSegmenter(cfg.Segmenter.MaxChars),
		Embedder:    emb,
		Vectors:     vectors,
		DB:          db,
		Generator:   generator,
		Selector:    evidence.NewSelector(emb, nil, cfg.Evidence.TopKPerTopic, cfg.Evidence.MaxChars),
		Playbook:    playbookName,
		Temperature: cfg.LLM.Temperature,
		TopK:        cfg.Evidence.TopKPerTopic,
	})

	docs, err := ingest.Load(inputs)
	if err != nil {
		log.Fatalf("load failed: %v", err)
	}
	contracts, err := svc.Ingest(docs, vendor)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	m := tui.New(svc, contracts)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
