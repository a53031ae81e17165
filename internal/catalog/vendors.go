package catalog

// Builtin is the catalog shipped with the app.
var Builtin = Static{
	{ID: "vendor-1", Name: "The Golden Spoon", Category: "Catering", CategorySlug: "catering", Location: "Austin, TX", Rating: 4.8, Price: "$$$", Phone: "(512) 555-0141", Website: "https://goldenspoon.example.com"},
	{ID: "vendor-2", Name: "Beat Drop Entertainment", Category: "Music & DJ", CategorySlug: "music-dj", Location: "Dallas, TX", Rating: 4.6, Price: "$$", Phone: "(214) 555-0178"},
	{ID: "vendor-3", Name: "Petal & Stem", Category: "Florist", CategorySlug: "florist", Location: "Austin, TX", Rating: 4.9, Price: "$$", Website: "https://petalandstem.example.com"},
	{ID: "vendor-4", Name: "Harvest Table Co.", Category: "Catering", CategorySlug: "catering", Location: "San Antonio, TX", Rating: 4.4, Price: "$$"},
	{ID: "vendor-5", Name: "Soundwave Strings", Category: "Music & DJ", CategorySlug: "music-dj", Location: "Houston, TX", Rating: 4.7, Price: "$$$", Phone: "(713) 555-0112"},
	{ID: "vendor-6", Name: "Twinkle & Tulle", Category: "Decoration", CategorySlug: "decoration", Location: "Austin, TX", Rating: 4.5, Price: "$$"},
	{ID: "vendor-7", Name: "Lantern Lane Events", Category: "Decoration", CategorySlug: "decoration", Location: "Fort Worth, TX", Rating: 4.2, Price: "$"},
	{ID: "vendor-8", Name: "Evergreen Lens", Category: "Photography", CategorySlug: "photography", Location: "Austin, TX", Rating: 4.9, Price: "$$$", Website: "https://evergreenlens.example.com"},
	{ID: "vendor-9", Name: "Candid Moments Studio", Category: "Photography", CategorySlug: "photography", Location: "Dallas, TX", Rating: 4.6, Price: "$$"},
	{ID: "vendor-10", Name: "Willow Creek Barn", Category: "Venues", CategorySlug: "venues", Location: "Dripping Springs, TX", Rating: 4.8, Price: "$$$", Phone: "(512) 555-0190"},
	{ID: "vendor-11", Name: "The Grand Atrium", Category: "Venues", CategorySlug: "venues", Location: "Houston, TX", Rating: 4.3, Price: "$$$"},
	{ID: "vendor-12", Name: "Wildflower Collective", Category: "Florist", CategorySlug: "florist", Location: "San Marcos, TX", Rating: 4.4, Price: "$"},
}
