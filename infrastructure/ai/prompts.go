package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"page_capture/domain/entities"
)

const gherkinExample = "```gherkin" + `
Feature: Login to Gmail

Scenario Outline: Successful login with valid credentials
  Given I open the login page
  When I type "<username>" into the Username field
  And I type "<password>" into the Password field
  And I click the Login button
  Then I should be logged in successfully

Examples:
  | username   | password  |
  | "testuser" | "testpass"|
  | "admin"    | "admin123"|
` + "```"

const stepDefinitionExample = "```java" + `
package com.gmail.stepdefs;

import io.cucumber.java.en.*;
import org.openqa.selenium.*;
import org.openqa.selenium.chrome.ChromeDriver;
import org.openqa.selenium.support.ui.*;

public class LoginStepDefinitions {
    private WebDriver driver;
    private WebDriverWait wait;

    @io.cucumber.java.Before
    public void setUp() {
        driver = new ChromeDriver();
        wait = new WebDriverWait(driver, Duration.ofSeconds(10));
        driver.manage().window().maximize();
    }

    @io.cucumber.java.After
    public void tearDown() {
        if (driver != null) driver.quit();
    }

    @Given("I open the login page")
    public void openLoginPage() {
        driver.get("https://accounts.example.com/login");
    }

    @When("I type {string} into the Username field")
    public void enterUsername(String username) {
        WebElement el = wait.until(ExpectedConditions.elementToBeClickable(By.id("username")));
        el.sendKeys(username);
    }

    @When("I type {string} into the Password field")
    public void enterPassword(String password) {
        WebElement el = wait.until(ExpectedConditions.elementToBeClickable(By.id("password")));
        el.sendKeys(password);
    }

    @When("I click the Login button")
    public void clickLogin() {
        driver.findElement(By.xpath("//button[contains(text(),'Login')]")).click();
    }

    @Then("I should be logged in successfully")
    public void verifyLogin() {
        WebElement success = wait.until(ExpectedConditions.visibilityOfElementLocated(By.className("success")));
        assert success.isDisplayed();
    }
}
` + "```"

// formatPages renders the pages in flow order with their elements as
// indented JSON
func formatPages(pages []entities.PageElements) string {
	parts := make([]string, 0, len(pages))
	for i, p := range pages {
		elements := p.Elements
		if elements == nil {
			elements = []entities.CapturedElement{}
		}
		dom, err := json.MarshalIndent(elements, "", "  ")
		if err != nil {
			dom = []byte("[]")
		}
		parts = append(parts, fmt.Sprintf("Page %d URL: %s\nDOM:\n%s", i+1, p.URL, dom))
	}
	return strings.Join(parts, "\n\n")
}

func pageURLs(pages []entities.PageElements) string {
	lines := make([]string, 0, len(pages))
	for i, p := range pages {
		lines = append(lines, fmt.Sprintf("Page %d: %s", i+1, p.URL))
	}
	return strings.Join(lines, "\n")
}

func featurePrompt(pageContext string) string {
	return fmt.Sprintf(`
Instructions:
- Generate ONLY a Cucumber (.feature) file.
- Use Scenario Outline with Examples table.
- Make sure every step is relevant to the provided DOM(s).
- Do not combine multiple actions into one step.
- Use diversified realistic dataset (names, addresses, pin codes, mobile numbers).
- Use dropdown values only from provided DOM(s).
- Generate multiple scenarios if applicable.
- If multiple pages are provided, treat the first as the start page and subsequent as navigation steps.

Context:
%s
Example:
%s

Persona:
- Audience: BDD testers who only need feature files.

Output Format:
- Only valid Gherkin in a `+"```gherkin```"+` block.

Tone:
- Clear, structured, executable.
`, pageContext, gherkinExample)
}

func stepDefinitionPrompt(pageContext string, pages []entities.PageElements) string {
	return fmt.Sprintf(`Instructions:
Generate BOTH:
1. A Cucumber .feature file.
2. A Java step definition class for selenium.
- Do NOT include Page Object code.
- Step defs must include WebDriver setup, explicit waits, and actual Selenium code.
- Use Scenario Outline with Examples table (diversified realistic data).

Context:
%s
Page URLs (in order):
%s

Example:
%s

%s

Persona:
- Audience: QA engineers working with Cucumber & Selenium.

Output Format:
- Gherkin in `+"```gherkin```"+` block + Java code in `+"```java```"+` block.

Tone:
- Professional, executable, structured.
`, pageContext, pageURLs(pages), gherkinExample, stepDefinitionExample)
}

func pageObjectPrompt(pageContext string, pages []entities.PageElements) string {
	return fmt.Sprintf(`Instructions:
Generate a Selenium Java Page Object Model class for each page in the flow.
- Add proper JavaDoc
- Use FindBy annotations
- Include meaningful method names
- Add proper waits
- Handle errors gracefully
- If multiple pages are provided, generate a separate Page Object class for each, named according to the page order (e.g., StartPage, NextPage1, etc.).

Context:
%s

Page URLs (in order):
%s

Output Format: Only Java code in a `+"```java```"+` block, with each class separated by a comment line. Example: // --- Page 1 ---
`, pageContext, pageURLs(pages))
}
