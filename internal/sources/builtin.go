package sources

// Maintainer of the custom rule list
const Maintainer = "Daniel Hipskind"

// Builtin returns the built-in reputation table
func Builtin() *Table {
	return NewTable(builtinEntries...)
}

var builtinEntries = []Entry{
	{Name: "Blockingmachine Rules", URL: "./filters/input/blockingmachine-rules.txt", Category: "custom", Trusted: true, Priority: 0, Maintainer: Maintainer},
	{Name: "AdGuard DNS Filter", URL: "https://filters.adtidy.org/extension/chromium/filters/15.txt", Category: "primary", Trusted: true, Priority: 1},
	{Name: "uBlock Origin Filters", URL: "https://raw.githubusercontent.com/uBlockOrigin/uAssets/master/filters/filters.txt", Category: "primary", Trusted: true, Priority: 1},
	{Name: "Peter Lowes List", URL: "https://pgl.yoyo.org/adservers/serverlist.php?hostformat=adblock&showintro=0&mimetype=plaintext", Category: "privacy", Trusted: true, Priority: 2},
	{Name: "OISD Blocklist Small", URL: "https://adguardteam.github.io/HostlistsRegistry/assets/filter_5.txt", Category: "privacy", Trusted: true, Priority: 2},
	{Name: "Fanboy's Annoyance List", URL: "https://secure.fanboy.co.nz/fanboy-annoyance.txt", Category: "annoyance", Trusted: true, Priority: 3},
	{Name: "AdGuard Annoyances Filter", URL: "https://raw.githubusercontent.com/AdguardTeam/FiltersRegistry/master/filters/filter_14_Annoyances/filter.txt", Category: "annoyance", Trusted: true, Priority: 3},
	{Name: "AdGuard Social Media Filter", URL: "https://raw.githubusercontent.com/AdguardTeam/FiltersRegistry/master/filters/filter_4_Social/filter.txt", Category: "social", Trusted: true, Priority: 3},
	{Name: "AdGuard Mobile Filter", URL: "https://raw.githubusercontent.com/AdguardTeam/AdguardFilters/master/MobileFilter/sections/adservers.txt", Category: "mobile", Trusted: true, Priority: 2},
	{Name: "AWAvenue Ads Rule", URL: "https://raw.githubusercontent.com/TG-Twilight/AWAvenue-Ads-Rule/main/AWAvenue-Ads-Rule.txt", Category: "mobile", Trusted: true, Priority: 2},
	// known lists without a reputation entry upstream
	{Name: "EasyList", URL: "https://easylist.to/easylist/easylist.txt"},
	{Name: "AdGuard Base Filter", URL: "https://adguardteam.github.io/HostlistsRegistry/assets/filter_1.txt"},
	{Name: "uBlock Unbreak Filter", URL: "https://raw.githubusercontent.com/uBlockOrigin/uAssets/refs/heads/master/filters/unbreak.txt"},
	{Name: "GetAdmiral Domains", URL: "https://raw.githubusercontent.com/LanikSJ/ubo-filters/main/filters/getadmiral-domains.txt"},
}
