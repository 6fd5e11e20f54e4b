package app

import (
	"database/sql"

	"github.com/scalesurvey/scale-survey/config"
)

type App struct {
	*sql.DB
	config.Config
}
