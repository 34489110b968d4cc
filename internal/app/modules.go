package app

import (
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/specialistvlad/burstplan/modules/echo"
	"github.com/specialistvlad/burstplan/modules/http_request"
	"github.com/specialistvlad/burstplan/modules/math"
	"github.com/specialistvlad/burstplan/modules/search"
	"github.com/specialistvlad/burstplan/modules/socketio_request"
)

// coreModules is the definitive list of all modules that are compiled into
// the burstplan binary.
var coreModules = []registry.Module{
	&echo.Module{},
	&http_request.Module{},
	&math.Module{},
	&search.Module{},
	&socketio_request.Module{},
}
