package main

import (
	"os"

	"github.com/MKhiriev/go-social-sync/internal/cli"
	"github.com/MKhiriev/go-social-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	info := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	os.Exit(cli.Execute(cli.NewRootCommand(info.String())))
}
