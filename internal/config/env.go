package config

import "strings"

// envKeyReplacer maps "api.baseurl" to SCHOOLOS_API_BASEURL.
var envKeyReplacer = strings.NewReplacer(".", "_")
