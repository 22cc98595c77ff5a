package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/xavierca1/ligue-growth/internal/config"
	"github.com/xavierca1/ligue-growth/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/kommo"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/metacapi"
)

// Sends a test conversion to Meta and, optionally, a test deal to Kommo
// using the credentials from .env. Also prints a bearer token for local
// calls against the API.
func main() {
	withKommo := flag.Bool("kommo", false, "também cria um lead de teste no Kommo")
	account := flag.String("account", "dev-account", "account id do token gerado")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuração inválida: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token, err := middleware.IssueToken(cfg.JWTSecret, *account, nil)
	if err != nil {
		log.Fatalf("❌ Falha ao gerar token: %v", err)
	}
	fmt.Printf("🔑 Token para %s:\n%s\n\n", *account, token)

	if cfg.MetaTestEventCode == "" {
		log.Fatal("❌ META_TEST_EVENT_CODE deve estar configurado no .env")
	}

	creds := func(context.Context) (metacapi.Credentials, error) {
		return metacapi.Credentials{
			PixelID:       cfg.MetaPixelID,
			AccessToken:   cfg.MetaAccessToken,
			TestEventCode: cfg.MetaTestEventCode,
		}, nil
	}
	capi := metacapi.NewClient(cfg.MetaBaseURL, creds)

	value := 49.99
	event := metacapi.Event{
		ID:            fmt.Sprintf("test:%d", time.Now().Unix()),
		Name:          metacapi.EventPurchase,
		Time:          time.Now(),
		Email:         "joao.teste@email.com",
		Phone:         "+556199767638",
		Value:         &value,
		Currency:      cfg.Currency,
		LeadID:        "sample-lead",
		TestEventCode: cfg.MetaTestEventCode,
	}

	fmt.Println("🔄 Enviando evento de teste para a Conversions API...")
	if err := capi.Send(ctx, event); err != nil {
		log.Fatalf("Erro ao enviar evento: %v", err)
	}
	fmt.Printf("✅ Evento %s enviado (test code %s)\n", event.ID, cfg.MetaTestEventCode)

	if !*withKommo {
		return
	}

	client := kommo.NewClient(cfg.KommoToken, cfg.KommoBaseURL, cfg.KommoStatusID)
	input := kommo.CreateLeadInput{
		CustomerName: "Joao Teste da Silva",
		Phone:        "+556199767638",
		Email:        "joao.teste@email.com",
		PlanName:     "Pro",
		Price:        4999,
		Tags:         []string{"teste"},
	}

	fmt.Println("🔄 Criando lead no Kommo...")
	leadID, err := client.CreateLead(ctx, input)
	if err != nil {
		log.Fatalf("Erro ao criar lead no Kommo: %v", err)
	}
	fmt.Printf("✅ Lead #%d criado em %s/leads/detail/%d\n", leadID, cfg.KommoBaseURL, leadID)
}
