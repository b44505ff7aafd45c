package core

import (
	"errors"
	"fmt"
	"log" // Usado para logs iniciais antes que o logger da aplicação esteja configurado
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config armazena todas as configurações da aplicação.
type Config struct {
	AppName    string
	AppVersion string
	AppDebug   bool

	// Database
	DBEngine   string
	DBName     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string

	// Logging
	LogDir         string
	LogLevel       string
	LogMaxBytes    int
	LogBackupCount int
	LogToConsole   bool

	// Export
	ExportDir string

	// PDF da fatura
	PDFBrandName            string
	PDFLocale               string // "pt-BR" ou "en"
	PDFCompress             bool
	PDFZeroOverrideFallback bool

	// HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
}

// LoadConfig carrega as configurações do arquivo .env especificado ou encontrado na árvore de diretórios.
func LoadConfig(envPath string) (*Config, error) {
	foundEnvPath, err := findEnvFile(envPath)
	if err != nil {
		log.Printf("Aviso: arquivo .env em '%s' não encontrado: %v. Usando variáveis de ambiente existentes.", envPath, err)
	} else {
		log.Printf("Carregando configurações de: %s", foundEnvPath)
		if err := godotenv.Load(foundEnvPath); err != nil {
			log.Printf("Aviso: erro ao carregar arquivo .env de '%s': %v. Usando valores padrão ou variáveis de ambiente existentes.", foundEnvPath, err)
		}
	}

	cfg := FromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// LogDir é crítico
	if err := ensureDir(cfg.LogDir, true); err != nil {
		return nil, fmt.Errorf("falha ao criar diretório de log essencial '%s': %w", cfg.LogDir, err)
	}
	if cfg.DBEngine == "sqlite" {
		sqliteDir := filepath.Dir(cfg.DBName)
		if sqliteDir != "." && sqliteDir != string(filepath.Separator) {
			if err := ensureDir(sqliteDir, true); err != nil {
				return nil, fmt.Errorf("falha ao criar diretório para banco de dados SQLite '%s': %w", sqliteDir, err)
			}
		}
	}
	_ = ensureDir(cfg.ExportDir, false)

	log.Println("Configurações carregadas e validadas.")
	return cfg, nil
}

// FromEnv monta a Config apenas a partir das variáveis de ambiente, sem tocar no disco.
func FromEnv() *Config {
	cfg := &Config{}

	cfg.AppName = getEnv("APP_NAME", "BRHUB Envios Faturas")
	cfg.AppVersion = getEnv("APP_VERSION", "1.0.0")
	cfg.AppDebug = getEnvAsBool("APP_DEBUG", false)

	cfg.DBEngine = strings.ToLower(getEnv("APP_DB_ENGINE", "sqlite"))
	cfg.DBName = getEnv("APP_DB_NAME", "brhub_faturas.db")
	cfg.DBHost = getEnv("APP_DB_HOST", "localhost")
	cfg.DBPort = getEnvAsInt("APP_DB_PORT", 5432)
	cfg.DBUser = getEnv("APP_DB_USER", "postgres")
	cfg.DBPassword = getEnv("APP_DB_PASSWORD", "")

	cfg.LogDir = getEnv("APP_LOG_DIR", "./app_logs")
	cfg.LogLevel = strings.ToUpper(getEnv("APP_LOG_LEVEL", "INFO"))
	cfg.LogMaxBytes = getEnvAsInt("APP_LOG_MAX_BYTES", 5*1024*1024) // 5MB
	cfg.LogBackupCount = getEnvAsInt("APP_LOG_BACKUP_COUNT", 7)
	cfg.LogToConsole = getEnvAsBool("APP_LOG_TO_CONSOLE", true)

	cfg.ExportDir = getEnv("APP_EXPORT_DIR", "./app_exports")

	cfg.PDFBrandName = getEnv("APP_PDF_BRAND_NAME", "BRHUB Envios")
	cfg.PDFLocale = getEnv("APP_PDF_LOCALE", "pt-BR")
	cfg.PDFCompress = getEnvAsBool("APP_PDF_COMPRESS", true)
	cfg.PDFZeroOverrideFallback = getEnvAsBool("APP_PDF_ZERO_OVERRIDE_FALLBACK", false)

	cfg.HTTPAddr = getEnv("APP_HTTP_ADDR", ":8080")
	cfg.HTTPReadTimeout = getEnvAsDuration("APP_HTTP_READ_TIMEOUT", 15)
	cfg.HTTPWriteTimeout = getEnvAsDuration("APP_HTTP_WRITE_TIMEOUT", 60)

	return cfg
}

// Validate verifica combinações de configuração que impedem a aplicação de iniciar.
func (c *Config) Validate() error {
	switch c.DBEngine {
	case "sqlite", "postgresql":
	default:
		return fmt.Errorf("%w: APP_DB_ENGINE '%s' não suportado (use sqlite ou postgresql)", ErrConfiguration, c.DBEngine)
	}
	switch c.PDFLocale {
	case "pt-BR", "en":
	default:
		return fmt.Errorf("%w: APP_PDF_LOCALE '%s' não suportado (use pt-BR ou en)", ErrConfiguration, c.PDFLocale)
	}
	if strings.TrimSpace(c.PDFBrandName) == "" {
		return fmt.Errorf("%w: APP_PDF_BRAND_NAME não pode ser vazio", ErrConfiguration)
	}
	return nil
}

// findEnvFile tenta localizar o arquivo .env.
// Primeiro no path fornecido, depois subindo na árvore de diretórios a partir do CWD.
func findEnvFile(envPath string) (string, error) {
	if _, err := os.Stat(envPath); err == nil {
		absPath, _ := filepath.Abs(envPath)
		return absPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("não foi possível obter o diretório de trabalho atual: %w", err)
	}

	for i := 0; i < 5; i++ {
		tryPath := filepath.Join(cwd, ".env")
		if _, err := os.Stat(tryPath); err == nil {
			return tryPath, nil
		}
		parent := filepath.Dir(cwd)
		if parent == cwd { // Chegou à raiz
			break
		}
		cwd = parent
	}
	return "", fmt.Errorf("arquivo .env não encontrado no caminho '%s' ou nos diretórios pais", envPath)
}

// ensureDir garante que um diretório exista, criando-o se necessário.
// Se 'critical' for true, retorna erro em caso de falha. Caso contrário, apenas loga um aviso.
func ensureDir(dirPath string, critical bool) error {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		msg := fmt.Sprintf("Não foi possível resolver o caminho absoluto para '%s': %v", dirPath, err)
		if critical {
			return errors.New(msg)
		}
		log.Println("AVISO:", msg)
		return nil
	}

	if err := os.MkdirAll(absPath, os.ModePerm); err != nil {
		msg := fmt.Sprintf("Não foi possível criar o diretório '%s': %v", absPath, err)
		if critical {
			return errors.New(msg)
		}
		log.Println("AVISO:", msg)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration lê a variável como segundos.
func getEnvAsDuration(key string, fallbackSeconds int) time.Duration {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return time.Duration(value) * time.Second
	}
	return time.Duration(fallbackSeconds) * time.Second
}
