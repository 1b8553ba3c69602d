package datagen

var (
	firstNames = []string{
		"Ada", "Basil", "Carmen", "Dmitri", "Elena", "Farid", "Greta", "Hiro",
		"Imani", "Jonas", "Keiko", "Luis", "Mira", "Nadia", "Oscar", "Priya",
	}
	lastNames = []string{
		"Abbott", "Brennan", "Castillo", "Dubois", "Eriksen", "Fischer", "Garcia",
		"Haddad", "Ivanova", "Jensen", "Kowalski", "Lindqvist", "Moreau", "Novak",
	}
	emailDomains = []string{
		"example.com", "example.net", "example.org", "mail.test", "inbox.test",
	}
	streetWords = []string{
		"Maple", "Cedar", "Harbor", "Summit", "Willow", "Granite", "Meadow", "Juniper",
	}
	streetSuffixes = []string{"St", "Ave", "Rd", "Ln", "Blvd", "Way", "Ct"}

	places = []struct{ city, state, zip string }{
		{"Springfield", "IL", "62701"},
		{"Riverton", "WY", "82501"},
		{"Fairview", "TN", "37062"},
		{"Salem", "OR", "97301"},
		{"Madison", "WI", "53703"},
		{"Georgetown", "TX", "78626"},
		{"Franklin", "MA", "02038"},
		{"Clinton", "IA", "52732"},
		{"Arlington", "VA", "22201"},
		{"Ashland", "KY", "41101"},
	}

	buzzwords = []string{
		"adaptive", "modular", "seamless", "scalable", "robust", "portable",
		"ergonomic", "compact", "hybrid", "reusable",
	}
	nouns = []string{
		"widget", "kettle", "lantern", "backpack", "blender", "monitor",
		"notebook", "speaker", "umbrella", "thermos",
	}
	catchPhrases = []string{
		"built to last", "ready out of the box", "designed for every day",
		"lighter than it looks", "quiet and efficient", "easy to clean",
	}
)
