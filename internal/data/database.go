package data

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/brhub/envios-faturas/internal/core"
	appLogger "github.com/brhub/envios-faturas/internal/core/logger"
	"github.com/brhub/envios-faturas/internal/data/models"
)

// InitializeDB abre a conexão conforme cfg.DBEngine e executa as migrações automáticas.
func InitializeDB(cfg *core.Config) (*gorm.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuração nula para InitializeDB", core.ErrConfiguration)
	}
	appLogger.Infof("Inicializando conexão com banco de dados: %s", cfg.DBEngine)

	gormLogLevel := gormlogger.Silent
	if cfg.AppDebug {
		gormLogLevel = gormlogger.Info
	}
	gormConfig := &gorm.Config{
		Logger: gormlogger.New(
			appLogger.WithFields(logrus.Fields{"component": "gorm"}),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormLogLevel,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch cfg.DBEngine {
	case "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		dialector = postgres.Open(dsn)
		appLogger.Infof("Conectando ao PostgreSQL: host=%s dbname=%s user=%s port=%d", cfg.DBHost, cfg.DBName, cfg.DBUser, cfg.DBPort)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.DBName))
		appLogger.Infof("Usando banco de dados SQLite: %s", cfg.DBName)
	default:
		return nil, fmt.Errorf("%w: motor de banco de dados não suportado: %s", core.ErrConfiguration, cfg.DBEngine)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		appLogger.Errorf("Falha ao conectar ao banco de dados %s: %v", cfg.DBEngine, err)
		return nil, core.NewDatabaseErrorDetail("open", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, core.NewDatabaseErrorDetail("pool", err)
	}
	if cfg.DBEngine == "sqlite" {
		// SQLite serializa escritas; uma conexão evita "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	appLogger.Info("Conexão com banco de dados estabelecida.")

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// sqliteDSN habilita chaves estrangeiras preservando parâmetros já presentes no nome.
func sqliteDSN(name string) string {
	sep := "?"
	if strings.Contains(name, "?") {
		sep = "&"
	}
	return name + sep + "_foreign_keys=on"
}

// Migrate cria ou altera as tabelas dos modelos.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("instância de banco de dados é nil, não é possível migrar")
	}
	appLogger.Info("Executando migrações automáticas do GORM...")
	err := db.AutoMigrate(
		&models.DBPayer{},
		&models.DBInvoice{},
		&models.DBInvoiceItem{},
		&models.AuditLogEntry{},
		&models.DBImportMetadata{},
	)
	if err != nil {
		appLogger.Errorf("Falha durante AutoMigrate: %v", err)
		return core.NewDatabaseErrorDetail("migrate", err)
	}
	appLogger.Info("Migrações automáticas do GORM concluídas.")
	return nil
}

// CloseDB fecha a conexão com o banco de dados.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		appLogger.Warn("Tentativa de fechar conexão DB nula.")
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Errorf("Erro ao obter *sql.DB para fechar: %v", err)
		return err
	}
	appLogger.Info("Fechando conexão com o banco de dados...")
	return sqlDB.Close()
}

type DBSessionFunc func(tx *gorm.DB) error

// WithTransaction executa fn dentro de uma transação.
// Faz commit se fn não retornar erro, rollback caso contrário.
func WithTransaction(db *gorm.DB, fn DBSessionFunc) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return core.NewDatabaseErrorDetail("begin", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("erro ao executar função (%v) e erro no rollback: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return core.NewDatabaseErrorDetail("commit", err)
	}
	return nil
}
