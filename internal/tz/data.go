package tz

// mccCountries maps mobile country codes to lower-case ISO 3166 codes.
var mccCountries = map[int]string{
	202: "gr", 204: "nl", 206: "be", 208: "fr", 212: "mc", 213: "ad", 214: "es",
	216: "hu", 218: "ba", 219: "hr", 220: "rs", 222: "it", 225: "va", 226: "ro",
	228: "ch", 230: "cz", 231: "sk", 232: "at", 234: "gb", 235: "gb", 238: "dk",
	240: "se", 242: "no", 244: "fi", 246: "lt", 247: "lv", 248: "ee", 250: "ru",
	255: "ua", 257: "by", 259: "md", 260: "pl", 262: "de", 266: "gi", 268: "pt",
	270: "lu", 272: "ie", 274: "is", 276: "al", 278: "mt", 280: "cy", 282: "ge",
	283: "am", 284: "bg", 286: "tr", 288: "fo", 290: "gl", 292: "sm", 293: "si",
	294: "mk", 295: "li", 297: "me",

	302: "ca", 308: "pm", 310: "us", 311: "us", 312: "us", 313: "us", 314: "us",
	315: "us", 316: "us", 330: "pr", 334: "mx", 338: "jm", 340: "gp", 342: "bb",
	344: "ag", 346: "ky", 348: "vg", 350: "bm", 352: "gd", 354: "ms", 356: "kn",
	358: "lc", 360: "vc", 363: "aw", 364: "bs", 365: "ai", 366: "dm", 368: "cu",
	370: "do", 372: "ht", 374: "tt", 376: "tc",

	400: "az", 401: "kz", 402: "bt", 404: "in", 405: "in", 410: "pk", 412: "af",
	413: "lk", 414: "mm", 415: "lb", 416: "jo", 417: "sy", 418: "iq", 419: "kw",
	420: "sa", 421: "ye", 422: "om", 424: "ae", 425: "il", 426: "bh", 427: "qa",
	428: "mn", 429: "np", 430: "ae", 431: "ae", 432: "ir", 434: "uz", 436: "tj",
	437: "kg", 438: "tm", 440: "jp", 441: "jp", 450: "kr", 452: "vn", 454: "hk",
	455: "mo", 456: "kh", 457: "la", 460: "cn", 461: "cn", 466: "tw", 467: "kp",
	470: "bd", 472: "mv",

	502: "my", 505: "au", 510: "id", 514: "tl", 515: "ph", 520: "th", 525: "sg",
	528: "bn", 530: "nz",

	602: "eg", 603: "dz", 604: "ma", 605: "tn", 606: "ly", 607: "gm", 608: "sn",
	609: "mr", 610: "ml", 611: "gn", 612: "ci", 613: "bf", 614: "ne", 615: "tg",
	616: "bj", 617: "mu", 618: "lr", 619: "sl", 620: "gh", 621: "ng", 622: "td",
	623: "cf", 624: "cm", 625: "cv", 626: "st", 627: "gq", 628: "ga", 629: "cg",
	630: "cd", 631: "ao", 632: "gw", 633: "sc", 634: "sd", 635: "rw", 636: "et",
	637: "so", 638: "dj", 639: "ke", 640: "tz", 641: "ug", 642: "bi", 643: "mz",
	645: "zm", 646: "mg", 647: "re", 648: "zw", 649: "na", 650: "mw", 651: "ls",
	652: "bw", 653: "sz", 654: "km", 655: "za", 657: "er",

	702: "bz", 704: "gt", 706: "sv", 708: "hn", 710: "ni", 712: "cr", 714: "pa",
	716: "pe", 722: "ar", 724: "br", 730: "cl", 732: "co", 734: "ve", 736: "bo",
	738: "gy", 740: "ec", 742: "gf", 744: "py", 746: "sr", 748: "uy", 750: "fk",
}

// countryZones lists the IANA zones of every ISO 3166 country, following
// zone.tab. Where a country spans several zones the most populous come first.
var countryZones = map[string][]string{
	"ad": {"Europe/Andorra"},
	"ae": {"Asia/Dubai"},
	"af": {"Asia/Kabul"},
	"ag": {"America/Antigua"},
	"ai": {"America/Anguilla"},
	"al": {"Europe/Tirane"},
	"am": {"Asia/Yerevan"},
	"ao": {"Africa/Luanda"},
	"ar": {"America/Argentina/Buenos_Aires", "America/Argentina/Cordoba", "America/Argentina/Mendoza", "America/Argentina/Salta", "America/Argentina/Jujuy", "America/Argentina/Tucuman", "America/Argentina/Catamarca", "America/Argentina/La_Rioja", "America/Argentina/San_Juan", "America/Argentina/San_Luis", "America/Argentina/Rio_Gallegos", "America/Argentina/Ushuaia"},
	"as": {"Pacific/Pago_Pago"},
	"at": {"Europe/Vienna"},
	"au": {"Australia/Sydney", "Australia/Melbourne", "Australia/Brisbane", "Australia/Perth", "Australia/Adelaide", "Australia/Darwin", "Australia/Hobart", "Australia/Broken_Hill", "Australia/Lindeman", "Australia/Eucla", "Australia/Lord_Howe", "Antarctica/Macquarie"},
	"aw": {"America/Aruba"},
	"ax": {"Europe/Mariehamn"},
	"az": {"Asia/Baku"},
	"ba": {"Europe/Sarajevo"},
	"bb": {"America/Barbados"},
	"bd": {"Asia/Dhaka"},
	"be": {"Europe/Brussels"},
	"bf": {"Africa/Ouagadougou"},
	"bg": {"Europe/Sofia"},
	"bh": {"Asia/Bahrain"},
	"bi": {"Africa/Bujumbura"},
	"bj": {"Africa/Porto-Novo"},
	"bl": {"America/St_Barthelemy"},
	"bm": {"Atlantic/Bermuda"},
	"bn": {"Asia/Brunei"},
	"bo": {"America/La_Paz"},
	"bq": {"America/Kralendijk"},
	"br": {"America/Sao_Paulo", "America/Manaus", "America/Fortaleza", "America/Belem", "America/Cuiaba", "America/Noronha", "America/Rio_Branco", "America/Recife", "America/Araguaina", "America/Maceio", "America/Bahia", "America/Campo_Grande", "America/Santarem", "America/Porto_Velho", "America/Boa_Vista", "America/Eirunepe"},
	"bs": {"America/Nassau"},
	"bt": {"Asia/Thimphu"},
	"bw": {"Africa/Gaborone"},
	"by": {"Europe/Minsk"},
	"bz": {"America/Belize"},
	"ca": {"America/Toronto", "America/Vancouver", "America/Edmonton", "America/Winnipeg", "America/Halifax", "America/St_Johns", "America/Regina", "America/Moncton", "America/Glace_Bay", "America/Goose_Bay", "America/Iqaluit", "America/Resolute", "America/Rankin_Inlet", "America/Swift_Current", "America/Cambridge_Bay", "America/Inuvik", "America/Creston", "America/Dawson_Creek", "America/Fort_Nelson", "America/Whitehorse", "America/Dawson", "America/Atikokan", "America/Blanc-Sablon"},
	"cc": {"Indian/Cocos"},
	"cd": {"Africa/Kinshasa", "Africa/Lubumbashi"},
	"cf": {"Africa/Bangui"},
	"cg": {"Africa/Brazzaville"},
	"ch": {"Europe/Zurich"},
	"ci": {"Africa/Abidjan"},
	"ck": {"Pacific/Rarotonga"},
	"cl": {"America/Santiago", "America/Punta_Arenas", "Pacific/Easter"},
	"cm": {"Africa/Douala"},
	"cn": {"Asia/Shanghai", "Asia/Urumqi"},
	"co": {"America/Bogota"},
	"cr": {"America/Costa_Rica"},
	"cu": {"America/Havana"},
	"cv": {"Atlantic/Cape_Verde"},
	"cw": {"America/Curacao"},
	"cx": {"Indian/Christmas"},
	"cy": {"Asia/Nicosia", "Asia/Famagusta"},
	"cz": {"Europe/Prague"},
	"de": {"Europe/Berlin", "Europe/Busingen"},
	"dj": {"Africa/Djibouti"},
	"dk": {"Europe/Copenhagen"},
	"dm": {"America/Dominica"},
	"do": {"America/Santo_Domingo"},
	"dz": {"Africa/Algiers"},
	"ec": {"America/Guayaquil", "Pacific/Galapagos"},
	"ee": {"Europe/Tallinn"},
	"eg": {"Africa/Cairo"},
	"eh": {"Africa/El_Aaiun"},
	"er": {"Africa/Asmara"},
	"es": {"Europe/Madrid", "Atlantic/Canary", "Africa/Ceuta"},
	"et": {"Africa/Addis_Ababa"},
	"fi": {"Europe/Helsinki"},
	"fj": {"Pacific/Fiji"},
	"fk": {"Atlantic/Stanley"},
	"fm": {"Pacific/Chuuk", "Pacific/Pohnpei", "Pacific/Kosrae"},
	"fo": {"Atlantic/Faroe"},
	"fr": {"Europe/Paris"},
	"ga": {"Africa/Libreville"},
	"gb": {"Europe/London"},
	"gd": {"America/Grenada"},
	"ge": {"Asia/Tbilisi"},
	"gf": {"America/Cayenne"},
	"gg": {"Europe/Guernsey"},
	"gh": {"Africa/Accra"},
	"gi": {"Europe/Gibraltar"},
	"gl": {"America/Nuuk", "America/Danmarkshavn", "America/Scoresbysund", "America/Thule"},
	"gm": {"Africa/Banjul"},
	"gn": {"Africa/Conakry"},
	"gp": {"America/Guadeloupe"},
	"gq": {"Africa/Malabo"},
	"gr": {"Europe/Athens"},
	"gs": {"Atlantic/South_Georgia"},
	"gt": {"America/Guatemala"},
	"gu": {"Pacific/Guam"},
	"gw": {"Africa/Bissau"},
	"gy": {"America/Guyana"},
	"hk": {"Asia/Hong_Kong"},
	"hn": {"America/Tegucigalpa"},
	"hr": {"Europe/Zagreb"},
	"ht": {"America/Port-au-Prince"},
	"hu": {"Europe/Budapest"},
	"id": {"Asia/Jakarta", "Asia/Makassar", "Asia/Jayapura", "Asia/Pontianak"},
	"ie": {"Europe/Dublin"},
	"il": {"Asia/Jerusalem"},
	"im": {"Europe/Isle_of_Man"},
	"in": {"Asia/Kolkata"},
	"io": {"Indian/Chagos"},
	"iq": {"Asia/Baghdad"},
	"ir": {"Asia/Tehran"},
	"is": {"Atlantic/Reykjavik"},
	"it": {"Europe/Rome"},
	"je": {"Europe/Jersey"},
	"jm": {"America/Jamaica"},
	"jo": {"Asia/Amman"},
	"jp": {"Asia/Tokyo"},
	"ke": {"Africa/Nairobi"},
	"kg": {"Asia/Bishkek"},
	"kh": {"Asia/Phnom_Penh"},
	"ki": {"Pacific/Tarawa", "Pacific/Kanton", "Pacific/Kiritimati"},
	"km": {"Indian/Comoro"},
	"kn": {"America/St_Kitts"},
	"kp": {"Asia/Pyongyang"},
	"kr": {"Asia/Seoul"},
	"kw": {"Asia/Kuwait"},
	"ky": {"America/Cayman"},
	"kz": {"Asia/Almaty", "Asia/Qyzylorda", "Asia/Qostanay", "Asia/Aqtobe", "Asia/Aqtau", "Asia/Atyrau", "Asia/Oral"},
	"la": {"Asia/Vientiane"},
	"lb": {"Asia/Beirut"},
	"lc": {"America/St_Lucia"},
	"li": {"Europe/Vaduz"},
	"lk": {"Asia/Colombo"},
	"lr": {"Africa/Monrovia"},
	"ls": {"Africa/Maseru"},
	"lt": {"Europe/Vilnius"},
	"lu": {"Europe/Luxembourg"},
	"lv": {"Europe/Riga"},
	"ly": {"Africa/Tripoli"},
	"ma": {"Africa/Casablanca"},
	"mc": {"Europe/Monaco"},
	"md": {"Europe/Chisinau"},
	"me": {"Europe/Podgorica"},
	"mf": {"America/Marigot"},
	"mg": {"Indian/Antananarivo"},
	"mh": {"Pacific/Majuro", "Pacific/Kwajalein"},
	"mk": {"Europe/Skopje"},
	"ml": {"Africa/Bamako"},
	"mm": {"Asia/Yangon"},
	"mn": {"Asia/Ulaanbaatar", "Asia/Hovd"},
	"mo": {"Asia/Macau"},
	"mp": {"Pacific/Saipan"},
	"mq": {"America/Martinique"},
	"mr": {"Africa/Nouakchott"},
	"ms": {"America/Montserrat"},
	"mt": {"Europe/Malta"},
	"mu": {"Indian/Mauritius"},
	"mv": {"Indian/Maldives"},
	"mw": {"Africa/Blantyre"},
	"mx": {"America/Mexico_City", "America/Monterrey", "America/Tijuana", "America/Hermosillo", "America/Cancun", "America/Mazatlan", "America/Merida", "America/Matamoros", "America/Chihuahua", "America/Ciudad_Juarez", "America/Ojinaga", "America/Bahia_Banderas"},
	"my": {"Asia/Kuala_Lumpur", "Asia/Kuching"},
	"mz": {"Africa/Maputo"},
	"na": {"Africa/Windhoek"},
	"nc": {"Pacific/Noumea"},
	"ne": {"Africa/Niamey"},
	"nf": {"Pacific/Norfolk"},
	"ng": {"Africa/Lagos"},
	"ni": {"America/Managua"},
	"nl": {"Europe/Amsterdam"},
	"no": {"Europe/Oslo"},
	"np": {"Asia/Kathmandu"},
	"nr": {"Pacific/Nauru"},
	"nu": {"Pacific/Niue"},
	"nz": {"Pacific/Auckland", "Pacific/Chatham"},
	"om": {"Asia/Muscat"},
	"pa": {"America/Panama"},
	"pe": {"America/Lima"},
	"pf": {"Pacific/Tahiti", "Pacific/Marquesas", "Pacific/Gambier"},
	"pg": {"Pacific/Port_Moresby", "Pacific/Bougainville"},
	"ph": {"Asia/Manila"},
	"pk": {"Asia/Karachi"},
	"pl": {"Europe/Warsaw"},
	"pm": {"America/Miquelon"},
	"pn": {"Pacific/Pitcairn"},
	"pr": {"America/Puerto_Rico"},
	"ps": {"Asia/Gaza", "Asia/Hebron"},
	"pt": {"Europe/Lisbon", "Atlantic/Azores", "Atlantic/Madeira"},
	"pw": {"Pacific/Palau"},
	"py": {"America/Asuncion"},
	"qa": {"Asia/Qatar"},
	"re": {"Indian/Reunion"},
	"ro": {"Europe/Bucharest"},
	"rs": {"Europe/Belgrade"},
	"ru": {"Europe/Moscow", "Europe/Kaliningrad", "Europe/Samara", "Asia/Yekaterinburg", "Asia/Omsk", "Asia/Novosibirsk", "Asia/Krasnoyarsk", "Asia/Irkutsk", "Asia/Yakutsk", "Asia/Vladivostok", "Asia/Magadan", "Asia/Kamchatka", "Europe/Kirov", "Europe/Volgograd", "Europe/Astrakhan", "Europe/Saratov", "Europe/Ulyanovsk", "Asia/Barnaul", "Asia/Tomsk", "Asia/Novokuznetsk", "Asia/Chita", "Asia/Khandyga", "Asia/Ust-Nera", "Asia/Sakhalin", "Asia/Srednekolymsk", "Asia/Anadyr"},
	"rw": {"Africa/Kigali"},
	"sa": {"Asia/Riyadh"},
	"sb": {"Pacific/Guadalcanal"},
	"sc": {"Indian/Mahe"},
	"sd": {"Africa/Khartoum"},
	"se": {"Europe/Stockholm"},
	"sg": {"Asia/Singapore"},
	"sh": {"Atlantic/St_Helena"},
	"si": {"Europe/Ljubljana"},
	"sj": {"Arctic/Longyearbyen"},
	"sk": {"Europe/Bratislava"},
	"sl": {"Africa/Freetown"},
	"sm": {"Europe/San_Marino"},
	"sn": {"Africa/Dakar"},
	"so": {"Africa/Mogadishu"},
	"sr": {"America/Paramaribo"},
	"ss": {"Africa/Juba"},
	"st": {"Africa/Sao_Tome"},
	"sv": {"America/El_Salvador"},
	"sx": {"America/Lower_Princes"},
	"sy": {"Asia/Damascus"},
	"sz": {"Africa/Mbabane"},
	"tc": {"America/Grand_Turk"},
	"td": {"Africa/Ndjamena"},
	"tf": {"Indian/Kerguelen"},
	"tg": {"Africa/Lome"},
	"th": {"Asia/Bangkok"},
	"tj": {"Asia/Dushanbe"},
	"tk": {"Pacific/Fakaofo"},
	"tl": {"Asia/Dili"},
	"tm": {"Asia/Ashgabat"},
	"tn": {"Africa/Tunis"},
	"to": {"Pacific/Tongatapu"},
	"tr": {"Europe/Istanbul"},
	"tt": {"America/Port_of_Spain"},
	"tv": {"Pacific/Funafuti"},
	"tw": {"Asia/Taipei"},
	"tz": {"Africa/Dar_es_Salaam"},
	"ua": {"Europe/Kyiv"},
	"ug": {"Africa/Kampala"},
	"um": {"Pacific/Midway", "Pacific/Wake"},
	"us": {"America/New_York", "America/Chicago", "America/Denver", "America/Phoenix", "America/Los_Angeles", "America/Anchorage", "Pacific/Honolulu", "America/Detroit", "America/Boise", "America/Kentucky/Louisville", "America/Kentucky/Monticello", "America/Indiana/Indianapolis", "America/Indiana/Vincennes", "America/Indiana/Winamac", "America/Indiana/Marengo", "America/Indiana/Petersburg", "America/Indiana/Vevay", "America/Indiana/Tell_City", "America/Indiana/Knox", "America/Menominee", "America/North_Dakota/Center", "America/North_Dakota/New_Salem", "America/North_Dakota/Beulah", "America/Juneau", "America/Sitka", "America/Metlakatla", "America/Yakutat", "America/Nome", "America/Adak"},
	"uy": {"America/Montevideo"},
	"uz": {"Asia/Tashkent", "Asia/Samarkand"},
	"va": {"Europe/Vatican"},
	"vc": {"America/St_Vincent"},
	"ve": {"America/Caracas"},
	"vg": {"America/Tortola"},
	"vi": {"America/St_Thomas"},
	"vn": {"Asia/Ho_Chi_Minh"},
	"vu": {"Pacific/Efate"},
	"wf": {"Pacific/Wallis"},
	"ws": {"Pacific/Apia"},
	"ye": {"Asia/Aden"},
	"yt": {"Indian/Mayotte"},
	"za": {"Africa/Johannesburg"},
	"zm": {"Africa/Lusaka"},
	"zw": {"Africa/Harare"},
}

// gmtCountries are countries whose standard time is GMT. A zero-offset,
// no-DST network time from anywhere else most likely lacks zone information.
var gmtCountries = map[string]bool{
	"bf": true, "ci": true, "eh": true, "fo": true, "gb": true, "gh": true,
	"gm": true, "gn": true, "gw": true, "ie": true, "is": true, "lr": true,
	"ma": true, "ml": true, "mr": true, "pt": true, "sl": true, "sn": true,
	"st": true, "tg": true, "uk": true,
}
