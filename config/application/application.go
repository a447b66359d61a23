package application

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/apsdehal/go-logger"
	_ "github.com/go-sql-driver/mysql"
	"github.com/openzipkin/zipkin-go"
	zipkinhttpreporter "github.com/openzipkin/zipkin-go/reporter/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trakkie-id/paymentrails/config/conf"
	"github.com/trakkie-id/paymentrails/config/logging"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
	"gorm.io/plugin/prometheus"
)

func SetUpLogger(logLevel string, appName string) *logger.Logger {
	log, _ := logger.New(appName, 100, os.Stdout)
	log.SetFormat("%{time} [%{module}] [%{level}] %{message}")

	if strings.EqualFold(logLevel, "DEBUG") {
		log.SetLogLevel(logger.DebugLevel)
	} else {
		log.SetLogLevel(logger.InfoLevel)
	}
	return log
}

// OverrideEnvVars lets deployment environments override the file-based
// configuration without editing it.
func OverrideEnvVars(cfg *conf.Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"DB_HOST", &cfg.DBHost},
		{"DB_USER", &cfg.DBUser},
		{"DB_PASSWORD", &cfg.DBPassword},
		{"DB_PORT", &cfg.DBPort},
		{"DB_DATABASE", &cfg.DBDatabase},
		{"HTTP_PORT", &cfg.HTTPPort},
		{"METRICS_PORT", &cfg.MetricsPort},
		{"ZIPKIN_ENDPOINT", &cfg.ZipkinEndpoint},
		{"APP_ENV", &cfg.ApplicationEnv},
		{"KAFKA_BROKER_ADDRESS", &cfg.KafkaBrokerAddress},
		{"SMS_TOPIC", &cfg.SMSTopic},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"RBI_ENDPOINT", &cfg.RBIEndpoint},
	}
	for _, o := range overrides {
		if value := os.Getenv(o.env); value != "" {
			*o.target = value
		}
	}
}

func InitDatabase(cfg conf.Config, log *logger.Logger) *gorm.DB {
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBDatabase + "?parseTime=true"

	gormLogger := gorm_logger.New(
		&logging.GormLogger{
			Logger: log,
		}, // io writer
		gorm_logger.Config{
			SlowThreshold: time.Second,      // Slow SQL threshold
			LogLevel:      gorm_logger.Info, // Log level
			Colorful:      true,             // Disable color
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormLogger,
	})

	if err != nil {
		panic(err)
	}

	//Config DB
	sqlDB, err := db.DB()

	if err != nil {
		panic(err)
	}

	// SetMaxIdleConns sets the maximum number of connections in the idle connection pool.
	sqlDB.SetMaxIdleConns(10)

	// SetMaxOpenConns sets the maximum number of open connections to the database.
	sqlDB.SetMaxOpenConns(100)

	// SetConnMaxLifetime sets the maximum amount of time a connection may be reused.
	sqlDB.SetConnMaxLifetime(time.Hour)

	//Set prometheus
	_ = db.Use(prometheus.New(prometheus.Config{
		DBName:          cfg.DBDatabase, // use `DBName` as metrics label
		RefreshInterval: 2000,           // Refresh metrics interval (default 15 seconds)
		StartServer:     false,          // start http server to expose metrics
		MetricsCollector: []prometheus.MetricsCollector{
			&prometheus.MySQL{
				VariableNames: []string{"threads_running"},
			},
		}, // user defined metrics
	}))

	log.Info("Database is connected")

	return db
}

func InitZipkinTracer(cfg conf.Config, log *logger.Logger) *zipkin.Tracer {
	const defaultEndpointURL = "http://localhost:9411/api/v2/spans"

	endpointUrlConf := cfg.ZipkinEndpoint
	if len(endpointUrlConf) < 1 {
		endpointUrlConf = defaultEndpointURL
	}

	reporter := zipkinhttpreporter.NewReporter(endpointUrlConf)

	localServer, err := zipkin.NewEndpoint(cfg.ApplicationName, "localhost:"+cfg.HTTPPort)

	if err != nil {
		log.Errorf("Error initializing zipkin! %s", err)
		panic(err)
	}

	sampler, err := zipkin.NewCountingSampler(1.0)
	if err != nil {
		log.Errorf("Error initializing zipkin! %s", err)
		panic(err)
	}

	t, err := zipkin.NewTracer(reporter, zipkin.WithSampler(sampler), zipkin.WithLocalEndpoint(localServer), zipkin.WithSharedSpans(false))

	if err != nil {
		log.Errorf("Error initializing zipkin! %s", err)
		panic(err)
	}

	log.Infof("Zipkin is connected, endpoint url : [%s]", endpointUrlConf)

	return t
}

func InitPrometheusServer(servingPort string, log *logger.Logger) error {
	http.Handle("/prometheus", promhttp.Handler())
	log.Info("Metrics endpoint started, listening on " + servingPort)
	return http.ListenAndServe(":"+servingPort, nil)
}
