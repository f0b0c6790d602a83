package modules

import (
	"github.com/Stachio-Dev/Stachio/modules/plugins"
)

var (
	pluginCache         map[string]*Plugin
	extendedPluginCache map[string]*ExtendedPlugin

	PluginList = []Plugin{
		&plugins.Warnings{},
		&plugins.GuildBlacklist{},
	}

	PluginExtendedList = []ExtendedPlugin{
		&plugins.Watchdog{},
		&plugins.Verification{},
		&plugins.AntiPhish{},
	}
)
