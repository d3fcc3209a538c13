package mysqldb

import (
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"flashmall/internal/pkg/bootstrap"
)

// Open 根据配置建立 gorm 连接。
// DSN 通过 go-sql-driver 的 Config 拼装，避免手写转义问题。
func Open(cfg *bootstrap.Config) (*gorm.DB, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.Infra.Mysql.User
	mc.Passwd = cfg.Infra.Mysql.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Infra.Mysql.Host + ":" + strconv.Itoa(cfg.Infra.Mysql.Port)
	mc.DBName = cfg.Infra.Mysql.Database
	mc.ParseTime = true
	mc.Loc = time.UTC

	db, err := gorm.Open(gormmysql.Open(mc.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
