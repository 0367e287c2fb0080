package importer

import "github.com/kailas-cloud/markdex/internal/domain/bookmark"

// DemoBookmarks returns a small mixed-topic bookmark set for trying out search.
func DemoBookmarks() []bookmark.Raw {
	return []bookmark.Raw{
		{
			Title:       "Tailwind CSS - Rapidly build modern websites without ever leaving your HTML.",
			URL:         "https://tailwindcss.com/",
			Description: "A utility-first CSS framework packed with classes like flex, pt-4, text-center and rotate-90 that can be composed to build any design, directly in your markup.",
		},
		{
			Title:       "React – A JavaScript library for building user interfaces",
			URL:         "https://react.dev/",
			Description: "React lets you build user interfaces out of individual pieces called components. Create your own React components like Thumbnail, LikeButton, and Video.",
		},
		{
			Title:       "Next.js by Vercel - The React Framework",
			URL:         "https://nextjs.org/",
			Description: "Used by some of the world's largest companies, Next.js enables you to create full-stack Web applications by extending the latest React features.",
		},
		{
			Title:       "Genkit: The Go-to Open Source Framework for AI-powered Apps",
			URL:         "https://firebase.google.com/docs/genkit",
			Description: "An open-source framework from Google that helps you build, deploy, and monitor production-ready AI apps.",
		},
		{
			Title:       "Shadcn/ui - Beautifully designed components built with Radix UI and Tailwind CSS.",
			URL:         "https://ui.shadcn.com/",
			Description: "Accessible and customizable components that you can copy and paste into your apps. Free. Open Source. And Next.js 13 Ready.",
		},
		{
			Title:       "Zustand - State management for React",
			URL:         "https://github.com/pmndrs/zustand",
			Description: "A small, fast and scalable bearbones state-management solution using simplified flux principles. Has a comfy API based on hooks, isn't boilerplatey or opinionated.",
		},
		{
			Title:       "Introduction to cooking: The basics",
			URL:         "https://www.example.com/cooking-basics",
			Description: "Learn the fundamental techniques of cooking, including knife skills, temperature control, and seasoning.",
		},
		{
			Title:       "Best travel destinations in Southeast Asia",
			URL:         "https://www.example.com/travel-sea",
			Description: "A comprehensive guide to the top countries and cities to visit in Southeast Asia for backpackers and luxury travelers alike.",
		},
		{
			Title:       "Async/Await in JavaScript: A Deep Dive",
			URL:         "https://www.example.com/js-async-await",
			Description: "A technical article explaining how async/await works under the hood, with examples and comparisons to promises.",
		},
	}
}
