package winservice

import "github.com/orvnet/orvd/infrastructure/config"

// ServiceDescription contains information about a service, needed to administer it
type ServiceDescription struct {
	Name        string
	DisplayName string
	Description string
}

// NodeService describes the orvd node when it is installed as a windows service
var NodeService = &ServiceDescription{
	Name:        "orvdsvc",
	DisplayName: "Orvd Service",
	Description: "Validates, votes on and cements blocks of the orv block lattice.",
}

// MainFunc specifies the signature of an application's main function to be able to run as a windows service.
// startedChan is nil when the application does not run as a service.
type MainFunc func(startedChan chan<- struct{}) error

// WinServiceMain runs main under the windows service control manager when
// orvd was launched as a service or with a service command, and reports
// whether it did so. It is a no-op everywhere but on windows.
var WinServiceMain = func(MainFunc, *ServiceDescription, *config.Config) (bool, error) { return false, nil }
