// Package errors provides structured, actionable error messages for kobgen.
//
// Errors carry a code that maps to a short message and a longer detail:
//   - K1xx: configuration (kobgen.json, kobgen.yaml, KOBGEN_* variables)
//   - K2xx: scanning Kotlin sources
//   - K3xx: route validation
//   - K4xx: dependency artifacts
//   - K5xx: writing output
//
// # Usage
//
//	err := errors.New("K301").
//	    WithLocation("src/jsMain/kotlin/com/example/pages/About.kt", 7, 0).
//	    WithSuggestion("Give one of the pages a routeOverride")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR K301: Duplicate page route
//	//
//	//   src/jsMain/kotlin/com/example/pages/About.kt:7
//	//
//	//        5 │ @Page
//	//        6 │ @Composable
//	//   →    7 │ fun AboutPage() {
//	//        8 │     Text("About")
//	//        9 │ }
//	//
//	//   Two or more pages resolve to the same route. ...
//	//
//	//   Hint: Give one of the pages a routeOverride
package errors
