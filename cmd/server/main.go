package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lockerbox-backend/internal/api"
	"lockerbox-backend/internal/auth"
	"lockerbox-backend/internal/config"
	"lockerbox-backend/internal/repository"
	"lockerbox-backend/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Carregar o arquivo .env (antes da configuração)
	if err := godotenv.Load(); err != nil {
		// Em produção o app pode rodar sem .env, desde que as variáveis
		// estejam setadas no ambiente (ex: Docker/K8s)
		log.Printf("Aviso: Não foi possível carregar o arquivo .env: %v. (Usando variáveis de ambiente existentes)", err)
	}

	var cfg config.Config
	if err := config.Load(&cfg); err != nil {
		log.Fatalf("Falha ao carregar configuração: %v", err)
	}

	// 2. Inicializar Camada de Repositório (PostgreSQL)
	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelInit()

	store, err := repository.NewPostgresStore(initCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Falha ao conectar ao banco de dados: %v", err)
	}
	defer store.Close()
	log.Println("Conectado ao PostgreSQL!")

	// 3. Rodar Migrations
	migrationSQL, err := os.ReadFile("./migrations/001_init.sql")
	if err != nil {
		log.Fatalf("Falha ao ler arquivo de migração: %v", err)
	}

	if err := store.RunMigrations(initCtx, string(migrationSQL)); err != nil {
		log.Printf("Aviso ao rodar migrações: %v. (Continuando...)", err)
	} else {
		log.Println("Migrações do banco de dados aplicadas com sucesso.")
	}

	// 4. Inicializar Camada de Sessão
	sessions, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("Falha ao iniciar SessionManager: %v", err)
	}

	// 5. Inicializar Armazenamento de Arquivos
	locker, err := service.NewDiskLocker(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Falha ao preparar diretório de uploads: %v", err)
	}

	// 6. Inicializar Camada de Serviço
	accountService := service.NewAccountService(store)
	lockerService := service.NewLockerService(locker)

	// 7. Inicializar Camada de API
	handler := api.NewHandler(accountService, lockerService, sessions, cfg.SessionTTL, cfg.FrontendOrigin)

	// 8. Configurar Servidor HTTP
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      handler.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Iniciar Servidor
	go func() {
		log.Printf("Servidor iniciado em http://localhost:%d/", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Erro ao iniciar servidor: %v", err)
		}
	}()

	// Aguardar sinal de interrupção
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Recebido sinal de desligamento, encerrando servidor...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Erro no graceful shutdown: %v", err)
	}
	log.Println("Servidor encerrado.")
}
