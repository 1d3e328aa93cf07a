// Package groups holds the style classes entities refer to by key.
//
// A [Registry] maps group keys to a [Group]: a title, a display color, a
// default radius and a free-form description. Every entity names a group;
// when that name is missing or unknown, [Registry.Resolve] answers with the
// reserved default group, so resolution never fails.
//
// # The Default Group
//
// The registry is created with a group under [DefaultKey]. It may be edited
// through [Registry.Define] or [Registry.Update] but [Registry.Remove] refuses
// to delete it.
//
// # Mutations
//
// Mutations follow the same contract as the graph model: they report whether
// they were applied and never return errors. An update of an unknown key is a
// no-op, recorded at debug level on the registry's logger.
//
//	reg := groups.New(nil)
//	reg.Define("vip", groups.Props{Color: "#fff", Radius: 40})
//	reg.Resolve("vip").Radius     // 40
//	reg.Remove(groups.DefaultKey) // false
//
// # Listeners
//
// Functions registered with [Registry.OnChange] run after every applied
// mutation. Legends and cached entity radii are refreshed this way.
package groups
