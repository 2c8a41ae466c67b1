package main

const defaultConfig = `# filterdedup configuration

# HTTP client settings
[http]
timeout = "30s"
retries = 3
backoff = "2s"
concurrency = 4

# Output settings
[output]
dir = "./output"
formats = ["adguard", "hosts", "dnsmasq"]
max_rules_per_file = 50000
generate_manifest = true
# categories = ["primary", "privacy"]
# exclude_categories = ["annoyance"]
# min_priority = 0
# tags = []

[output.header]
title = "filterdedup combined list"
description = "Deduplicated combination of the configured filter lists"
homepage = "https://github.com/bnema/filterdedup"
license = "BSD-3-Clause"
expires = "1 day"

# Cross-source deduplication
[dedup]
enabled = true
maintainer = "Daniel Hipskind"
cache_size = 65536

# Scoring weights used to pick the kept rule of a duplicate group
[dedup.weights]
source = 2
modifier = 2
date_added = 5
important = 10
trusted = 15
maintainer = 20
domain = 8
exact = 5

# Optional YAML file adding or overriding source reputations
# sources_file = "./configs/sources.yaml"

# Filter lists to merge, local paths are read from disk
# Set enabled = false to skip a list

[[lists]]
name = "AdGuard DNS Filter"
url = "https://filters.adtidy.org/extension/chromium/filters/15.txt"
enabled = true

[[lists]]
name = "uBlock Origin Filters"
url = "https://raw.githubusercontent.com/uBlockOrigin/uAssets/master/filters/filters.txt"
enabled = true

[[lists]]
name = "EasyList"
url = "https://easylist.to/easylist/easylist.txt"
enabled = true

[[lists]]
name = "Peter Lowes List"
url = "https://pgl.yoyo.org/adservers/serverlist.php?hostformat=adblock&showintro=0&mimetype=plaintext"
enabled = true

[[lists]]
name = "OISD Blocklist Small"
url = "https://adguardteam.github.io/HostlistsRegistry/assets/filter_5.txt"
enabled = true

[[lists]]
name = "Fanboy's Annoyance List"
url = "https://secure.fanboy.co.nz/fanboy-annoyance.txt"
enabled = false

[[lists]]
name = "Blockingmachine Rules"
url = "./filters/input/blockingmachine-rules.txt"
enabled = false
`
