package main

import (
	"gorm.io/gen"

	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/model"
)

func main() {
	models := []any{
		model.UserModel{},
		model.RoleModel{},
		model.CredentialModel{},
	}

	gen := gen.NewGenerator(gen.Config{
		OutPath: "./internal/infra/persistence/postgres/query",
	})

	gen.ApplyBasic(models...)

	gen.Execute()
}
